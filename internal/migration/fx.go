package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/config"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg *config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return Run(sqlDB, cfg.Database.Driver)
	}),
)
