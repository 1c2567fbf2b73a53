package database

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"flavorshop-backend/internal/models"

	"gorm.io/gorm"
)

// ParseSeedUsers reads "Name <email>;Name <email>" pairs.
func ParseSeedUsers(list string) ([]models.User, error) {
	var users []models.User
	for _, part := range strings.Split(list, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			return nil, fmt.Errorf("seed user %q: %w", part, err)
		}
		name := strings.TrimSpace(addr.Name)
		if name == "" {
			name = strings.SplitN(addr.Address, "@", 2)[0]
		}
		users = append(users, models.User{
			Name:  name,
			Email: strings.ToLower(addr.Address),
		})
	}
	return users, nil
}

// SeedUsers creates missing users without a password; their first login sets it.
func SeedUsers(db *gorm.DB, list string) error {
	users, err := ParseSeedUsers(list)
	if err != nil {
		return err
	}
	for _, u := range users {
		var existing models.User
		err := db.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup seed user %s: %w", u.Email, err)
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("create seed user %s: %w", u.Email, err)
		}
		log.Printf("seed user created: %s", u.Email)
	}
	return nil
}
