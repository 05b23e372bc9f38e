package apikey

import (
	"github.com/repolens/repolens/internal/apikey/repository"
	"github.com/repolens/repolens/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
