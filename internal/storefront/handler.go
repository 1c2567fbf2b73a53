package storefront

import (
	"strconv"

	"flavorshop-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// GET /api/public/products?category=<id>
func ProductsHandler(svc Storefront) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categoryID uint
		if raw := c.Query("category"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return apperr.Validation("invalid category id")
			}
			categoryID = uint(id)
		}
		res, err := svc.Products(c.UserContext(), categoryID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/public/orders
func OrderHandler(svc Storefront) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var o Order
		if err := c.BodyParser(&o); err != nil {
			return apperr.Validation("invalid request body")
		}
		link, err := svc.OrderLink(c.UserContext(), o)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"url": link})
	}
}
