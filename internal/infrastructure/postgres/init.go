package postgres

import (
	"fmt"
	"log"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models lists every table owned by the service.
func Models() []interface{} {
	return []interface{}{
		&models.OrderModel{},
		&models.ReconciliationModel{},
		&models.CronWatermarkModel{},
		&models.ReconciliationEventModel{},
	}
}

func Dialector(cfg config.ReconDB) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.Dsn), nil
	case "mysql":
		return mysql.Open(cfg.Dsn), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func InitDB(cfg *config.BleumiConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.ReconDB)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	if cfg.ReconDB.AutoMigrate {
		if err := db.AutoMigrate(Models()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return db, nil
}

func MustInitDB(cfg *config.BleumiConfig) *gorm.DB {
	db, err := InitDB(cfg)
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return db
}
