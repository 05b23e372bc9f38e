package migration

import (
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	authdomain "github.com/repolens/repolens/internal/auth/domain"
	"github.com/repolens/repolens/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations are postgres-only. sqlite is the
		// local and test database, where the schema is derived from the
		// models instead.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&apikeydomain.APIKey{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
