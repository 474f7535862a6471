package migration

import (
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	"github.com/smallbiznis/billfold/internal/config"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	recurringdomain "github.com/smallbiznis/billfold/internal/recurring/domain"
	"github.com/smallbiznis/billfold/internal/seed"
	settingsdomain "github.com/smallbiznis/billfold/internal/settings/domain"
	subscriptiondomain "github.com/smallbiznis/billfold/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are dev conveniences, schema comes from the models.
			if err := conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&settingsdomain.UserSettings{},
				&subscriptiondomain.Subscription{},
				&clientdomain.Client{},
				&recurringdomain.RecurringInvoice{},
				&recurringdomain.RecurringInvoiceItem{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
			); err != nil {
				return err
			}
		}

		if cfg.Bootstrap.EnsureDefaultUser {
			return seed.EnsureDefaultUser(conn, cfg.Bootstrap)
		}
		return nil
	}),
)
