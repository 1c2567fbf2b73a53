package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every failure as {"error": msg[, "details": {...}]}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := As(err); ok {
		if e.Kind == KindInternal {
			log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), e)
		}
		body := fiber.Map{"error": e.Message}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		return c.Status(e.Status()).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}

	log.Printf("unexpected error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "unexpected server error",
	})
}
