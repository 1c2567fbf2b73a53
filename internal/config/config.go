package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=flavorshop port=5432 sslmode=disable"

type Config struct {
	Env      string
	HTTPPort string

	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
	CORSOrigins  string
	LoginPath    string // where unauthenticated admin page requests are sent
	AdminDir     string // static admin build served under /admin

	ImageStore         string // local | drive
	ProductImagePath   string
	PublicImageBaseURL string
	DriveFolderID      string
	GoogleCredentials  string

	WhatsAppNumber string
	StoreName      string

	CronEmail     string
	CronPass      string
	CronUserAgent string

	SeedUsers string // "Name <email>;Name <email>"
}

func Load() *Config {
	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:     strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseDSN:        getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:       getBool("COOKIE_SECURE", false),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		LoginPath:          getEnv("LOGIN_PATH", "/auth/login"),
		AdminDir:           getEnv("ADMIN_DIR", "./web/admin"),
		ImageStore:         strings.ToLower(getEnv("IMAGE_STORE", "local")),
		ProductImagePath:   getEnv("PRODUCT_IMAGE_PATH", "./product-images"),
		PublicImageBaseURL: strings.TrimRight(getEnv("PUBLIC_IMAGE_BASE_URL", "/images"), "/"),
		DriveFolderID:      getEnv("DRIVE_FOLDER_ID", ""),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		WhatsAppNumber:     getEnv("WHATSAPP_NUMBER", ""),
		StoreName:          getEnv("STORE_NAME", "Loja"),
		CronEmail:          getEnv("CRON_EMAIL", ""),
		CronPass:           getEnv("CRON_PASS", ""),
		CronUserAgent:      getEnv("CRON_USER_AGENT", "vercel-cron/1.0"),
		SeedUsers:          getEnv("SEED_USERS", ""),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		log.Fatalf("[FATAL] DATABASE_DRIVER must be postgres or sqlite, got %q", cfg.DatabaseDriver)
	}
	if cfg.ImageStore == "drive" && (cfg.DriveFolderID == "" || cfg.GoogleCredentials == "") {
		log.Fatal("[FATAL] IMAGE_STORE=drive requires DRIVE_FOLDER_ID and GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is using the default value")
	}
	if cfg.WhatsAppNumber == "" {
		log.Println("[WARN] WHATSAPP_NUMBER is empty, storefront orders are disabled")
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
