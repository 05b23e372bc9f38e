package summarizer

import (
	"github.com/repolens/repolens/internal/summarizer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("summarizer.service",
	fx.Provide(service.New),
)
