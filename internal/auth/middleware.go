package auth

import (
	"net/url"
	"strings"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserNameKey  = "user_name"
	CtxUserEmailKey = "user_email"

	SessionCookie = "session"
)

// tokenFrom prefers the session cookie and falls back to a Bearer header.
func tokenFrom(c *fiber.Ctx) string {
	if tok := c.Cookies(SessionCookie); tok != "" {
		return tok
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func authenticate(c *fiber.Ctx, cfg *config.Config) bool {
	tok := tokenFrom(c)
	if tok == "" {
		return false
	}
	claims, err := ParseToken(cfg.JWTSecret, tok)
	if err != nil {
		return false
	}
	c.Locals(CtxUserIDKey, claims.UserID)
	c.Locals(CtxUserNameKey, claims.Name)
	c.Locals(CtxUserEmailKey, claims.Email)
	return true
}

// JWTMiddleware guards API routes: 401 JSON without a valid session.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authenticate(c, cfg) {
			return apperr.Unauthorized("authentication required")
		}
		return c.Next()
	}
}

// PageGuard protects admin pages by redirecting to the login page.
func PageGuard(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authenticate(c, cfg) {
			return c.Redirect(cfg.LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

// CurrentActor reads the authenticated user left by the middleware.
func CurrentActor(c *fiber.Ctx) audit.Actor {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return audit.Actor{}
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	return audit.Actor{UserID: &id, Name: name}
}
