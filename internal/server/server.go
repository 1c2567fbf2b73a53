// Package server assembles the fiber application: middleware, error handling
// and the route table.
package server

import (
	"strings"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/auth"
	"flavorshop-backend/internal/catalog"
	"flavorshop-backend/internal/config"
	"flavorshop-backend/internal/inventory"
	"flavorshop-backend/internal/media"
	"flavorshop-backend/internal/sales"
	"flavorshop-backend/internal/storefront"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func New(cfg *config.Config, db *gorm.DB, uploader *media.Uploader) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler,
		BodyLimit:    media.MaxUploadBytes + 1<<20,
	})

	app.Use(recover.New())
	if cfg.Env != "test" {
		app.Use(logger.New())
	}

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: !strings.Contains(cfg.CORSOrigins, "*"),
	}))

	authSvc := auth.NewService(db)
	catalogSvc := catalog.NewService(db, uploader)
	stockSvc := inventory.NewService(db)
	salesSvc := sales.NewService(db)
	shop := storefront.NewService(db, uploader.URL, cfg.WhatsAppNumber, cfg.StoreName)

	api := app.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(authSvc, cfg))
	api.Post("/auth/logout", auth.LogoutHandler(cfg))
	api.Get("/cron/keepalive", auth.CronKeepaliveHandler(authSvc, cfg))
	api.Get("/public/products", storefront.ProductsHandler(shop))
	api.Post("/public/orders", storefront.OrderHandler(shop))
	api.Get("/categories", catalog.ListCategoriesHandler(catalogSvc))
	api.Get("/products/:id/flavors", catalog.ActiveFlavorsHandler(catalogSvc))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Get("/users", auth.ListUsersHandler(db))

	protected.Post("/categories", catalog.CreateCategoryHandler(catalogSvc))
	protected.Put("/categories/:id", catalog.RenameCategoryHandler(catalogSvc))
	protected.Delete("/categories/:id", catalog.DeleteCategoryHandler(catalogSvc))

	protected.Get("/products", catalog.ListProductsHandler(catalogSvc))
	protected.Post("/products", catalog.CreateProductHandler(catalogSvc))
	protected.Get("/products/:id", catalog.GetProductHandler(catalogSvc))
	protected.Put("/products/:id", catalog.UpdateProductHandler(catalogSvc))
	protected.Delete("/products/:id", catalog.DeleteProductHandler(catalogSvc))

	protected.Get("/stock", inventory.ListStockHandler(stockSvc))
	protected.Post("/stock", inventory.OverwriteStockHandler(stockSvc))
	protected.Get("/stock/:productId", inventory.GetProductStockHandler(stockSvc))

	protected.Get("/sales", sales.ListSalesHandler(salesSvc))
	protected.Post("/sales", sales.RegisterSaleHandler(salesSvc))
	protected.Get("/sales/summary", sales.SummaryHandler(salesSvc))
	protected.Get("/sales/export", sales.ExportHandler(salesSvc))
	protected.Put("/sales/:id", sales.EditSaleHandler(salesSvc))
	protected.Delete("/sales/:id", sales.DeleteSaleHandler(salesSvc))

	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	// Static
	if cfg.ImageStore == "local" && strings.HasPrefix(cfg.PublicImageBaseURL, "/") {
		app.Static(cfg.PublicImageBaseURL, cfg.ProductImagePath)
	}
	app.Use("/admin", auth.PageGuard(cfg))
	app.Static("/admin", cfg.AdminDir, fiber.Static{Index: "index.html"})

	return app
}
