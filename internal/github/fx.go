package github

import (
	"github.com/repolens/repolens/internal/github/service"
	"go.uber.org/fx"
)

var Module = fx.Module("github.service",
	fx.Provide(service.New),
)
