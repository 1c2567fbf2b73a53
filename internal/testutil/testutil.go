// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"

	"flavorshop-backend/internal/config"
	"flavorshop-backend/internal/database"
	"flavorshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret-test-secret-test-secret!"

// Config returns a configuration backed by a private in-memory sqlite database.
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                "test",
		DatabaseDriver:     "sqlite",
		DatabaseDSN:        "file::memory:",
		JWTSecret:          JWTSecret,
		CORSOrigins:        "*",
		LoginPath:          "/auth/login",
		AdminDir:           t.TempDir(),
		ImageStore:         "local",
		ProductImagePath:   t.TempDir(),
		PublicImageBaseURL: "/images",
		WhatsAppNumber:     "5511999990000",
		StoreName:          "Loja Teste",
		CronEmail:          "cron@example.com",
		CronPass:           "cron-pass",
		CronUserAgent:      "vercel-cron/1.0",
	}
}

func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(Config(t))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func Category(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func Product(t *testing.T, db *gorm.DB, categoryID uint, name string) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		CategoryID:    categoryID,
		OriginalPrice: decimal.RequireFromString("59.90"),
		Status:        models.StatusActive,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func Flavor(t *testing.T, db *gorm.DB, productID uint, name string, stock int) models.Flavor {
	t.Helper()
	f := models.Flavor{ProductID: productID, Name: name, Stock: stock, Status: models.StatusActive}
	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("create flavor: %v", err)
	}
	return f
}

func User(t *testing.T, db *gorm.DB, name, email, passwordHash string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: email, PasswordHash: passwordHash}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func Stock(t *testing.T, db *gorm.DB, flavorID uint) int {
	t.Helper()
	var f models.Flavor
	if err := db.First(&f, flavorID).Error; err != nil {
		t.Fatalf("load flavor %d: %v", flavorID, err)
	}
	return f.Stock
}
