package migration

import (
	authdomain "github.com/smallbiznis/stockbook/internal/auth/domain"
	"github.com/smallbiznis/stockbook/internal/config"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	txdomain "github.com/smallbiznis/stockbook/internal/transaction/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite and mysql are dev conveniences; gorm keeps their schema
			// in sync without versioned migrations.
			return conn.AutoMigrate(
				&authdomain.Business{},
				&productdomain.Product{},
				&contactdomain.Contact{},
				&txdomain.Transaction{},
				&txdomain.TransactionLine{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
