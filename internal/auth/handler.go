package auth

import (
	"time"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/config"
	"flavorshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// POST /api/auth/login
func LoginHandler(svc Authenticator, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		user, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return err
		}

		token, err := GenerateToken(cfg.JWTSecret, user, cfg.SessionTTL)
		if err != nil {
			return apperr.Internal(err, "could not create session")
		}

		ttl := cfg.SessionTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(ttl),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return apperr.Unauthorized("authentication required")
		}
		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			return apperr.FromDB(err, "user")
		}
		return c.JSON(toUserResponse(&user))
	}
}

// GET /api/users
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.WithContext(c.UserContext()).Order("name asc").Find(&users).Error; err != nil {
			return apperr.FromDB(err, "user")
		}
		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/cron/keepalive
// Called by the hosting scheduler to keep the database and login path warm.
func CronKeepaliveHandler(svc *Service, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderUserAgent) != cfg.CronUserAgent {
			return apperr.Forbidden("forbidden")
		}
		if cfg.CronEmail == "" || cfg.CronPass == "" {
			return apperr.Internal(nil, "cron credentials are not configured")
		}

		user, err := svc.Verify(c.UserContext(), cfg.CronEmail, cfg.CronPass)
		if err != nil {
			return err
		}
		if err := svc.Ping(c.UserContext()); err != nil {
			return apperr.Internal(err, "database unreachable")
		}

		return c.JSON(fiber.Map{
			"ok": true,
			"user": fiber.Map{
				"id":    user.ID,
				"email": user.Email,
			},
		})
	}
}
