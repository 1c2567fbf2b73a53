package main

import (
	"context"
	"log"
	"os"

	"flavorshop-backend/internal/config"
	"flavorshop-backend/internal/database"
	"flavorshop-backend/internal/media"
	"flavorshop-backend/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// .env is a development convenience; production sets variables directly
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("[INFO] no .env file, using environment variables")
		}
	}

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("[FATAL] database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("[FATAL] migration failed: %v", err)
	}
	if err := database.SeedUsers(db, cfg.SeedUsers); err != nil {
		log.Fatalf("[FATAL] seeding users failed: %v", err)
	}

	store, err := imageStore(cfg)
	if err != nil {
		log.Fatalf("[FATAL] image store: %v", err)
	}

	app := server.New(cfg, db, media.NewUploader(store))

	log.Println("server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

func imageStore(cfg *config.Config) (media.ImageStore, error) {
	if cfg.ImageStore == "drive" {
		return media.NewDriveStore(context.Background(), cfg.GoogleCredentials, cfg.DriveFolderID)
	}
	return media.NewLocalStore(cfg.ProductImagePath, cfg.PublicImageBaseURL)
}
