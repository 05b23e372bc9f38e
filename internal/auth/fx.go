package auth

import (
	"github.com/repolens/repolens/internal/auth/repository"
	"github.com/repolens/repolens/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
