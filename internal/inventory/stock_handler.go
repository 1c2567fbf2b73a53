package inventory

import (
	"strconv"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type OverwriteStockRequest struct {
	ProductID uint           `json:"product_id"`
	Stock     map[string]int `json:"stock"` // flavor id -> absolute stock
}

// GET /api/stock
func ListStockHandler(svc StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.All(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/stock/:productId
func GetProductStockHandler(svc StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := strconv.ParseUint(c.Params("productId"), 10, 64)
		if err != nil || productID == 0 {
			return apperr.Validation("invalid product id")
		}
		res, err := svc.ForProduct(c.UserContext(), uint(productID))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/stock
func OverwriteStockHandler(svc StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OverwriteStockRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body: product_id must be a number and stock an object of integers")
		}

		stock := make(map[uint]int, len(body.Stock))
		for key, qty := range body.Stock {
			id, err := strconv.ParseUint(key, 10, 64)
			if err != nil || id == 0 {
				return apperr.Validation("invalid flavor id %q", key)
			}
			stock[uint(id)] = qty
		}

		res, err := svc.Overwrite(c.UserContext(), auth.CurrentActor(c), body.ProductID, stock)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
