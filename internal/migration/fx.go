package migration

import (
	authdomain "github.com/openhaus/atrium/internal/auth/domain"
	cmadomain "github.com/openhaus/atrium/internal/cma/domain"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/internal/seed"
	sellerupdatedomain "github.com/openhaus/atrium/internal/sellerupdate/domain"
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
			// sqlite and mysql are for local and test setups; gorm's
			// migrator keeps them in step without a second set of DDL.
			if err := conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&listingdomain.Listing{},
				&cmadomain.Report{},
				&cmadomain.ReportComparable{},
				&sellerupdatedomain.Subscription{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureDefaultAdmin(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoListings(conn)
		}
		return nil
	}),
)
