package database

import (
	"fmt"
	"log"

	"flavorshop-backend/internal/config"
	"flavorshop-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres goes through pgx's
// database/sql adapter; sqlite is meant for local runs and tests.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DatabaseDSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// one writer; also keeps an in-memory database alive across calls
		sqlDB.SetMaxOpenConns(1)
		return db, nil

	case "postgres", "":
		pgxCfg, err := pgx.ParseConfig(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("parse DATABASE_DSN: %w", err)
		}
		sqlDB := stdlib.OpenDB(*pgxCfg)
		sqlDB.SetMaxOpenConns(10)
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Flavor{},
		&models.Sale{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// Rows written before the status enum was normalized.
	legacy := map[string]models.Status{
		"ATIVO":      models.StatusActive,
		"DESATIVADO": models.StatusDisabled,
		"":           models.StatusActive,
	}
	for _, table := range []string{"products", "flavors"} {
		for old, status := range legacy {
			res := db.Exec("UPDATE "+table+" SET status = ? WHERE status = ?", string(status), old)
			if res.Error != nil {
				return fmt.Errorf("normalize %s.status: %w", table, res.Error)
			}
			if res.RowsAffected > 0 {
				log.Printf("normalized %d %s rows from status %q to %s", res.RowsAffected, table, old, status)
			}
		}
	}

	log.Println("database migration complete")
	return nil
}
