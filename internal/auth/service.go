package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultHashCost = 12

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Verify(ctx context.Context, email, password string) (*models.User, error)
}

type Service struct {
	db       *gorm.DB
	HashCost int
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, HashCost: DefaultHashCost}
}

func errBadCredentials() *apperr.Error {
	return apperr.Unauthorized("invalid email or password")
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *Service) findUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.FromDB(err, "user")
	}
	return &user, nil
}

// Login checks credentials for a known email. A user without a password hash
// gets the supplied password stored on this first login.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.findUser(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, errBadCredentials()
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return s.provision(ctx, user, password)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials()
	}
	return user, nil
}

func (s *Service) provision(ctx context.Context, user *models.User, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return nil, apperr.Internal(err, "could not hash password")
	}

	// only the first concurrent login wins
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND password_hash = ''", user.ID).
		Update("password_hash", string(hash))
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		var fresh models.User
		if err := s.db.WithContext(ctx).First(&fresh, user.ID).Error; err != nil {
			return nil, apperr.FromDB(err, "user")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(fresh.PasswordHash), []byte(password)); err != nil {
			return nil, errBadCredentials()
		}
		return &fresh, nil
	}

	user.PasswordHash = string(hash)
	return user, nil
}

// Verify checks credentials without provisioning. Unknown users are
// reported as not found.
func (s *Service) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.findUser(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, apperr.Unauthorized("password not set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid password")
	}
	return user, nil
}

// Ping checks the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
