package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryView struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProductCount int64  `json:"product_count"`
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]CategoryView, error)
	CreateCategory(ctx context.Context, actor audit.Actor, name string) (*models.Category, error)
	RenameCategory(ctx context.Context, actor audit.Actor, id uint, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, actor audit.Actor, id uint) error
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return "", apperr.Validation("category name must be between 2 and 100 characters")
	}
	return name, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	var out []CategoryView
	err := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.id, categories.name, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("categories.name asc").
		Scan(&out).Error
	if err != nil {
		return nil, apperr.FromDB(err, "category")
	}
	if out == nil {
		out = []CategoryView{}
	}
	return out, nil
}

func nameTaken(tx *gorm.DB, name string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperr.FromDB(err, "category")
	}
	return count > 0, nil
}

func (s *Service) CreateCategory(ctx context.Context, actor audit.Actor, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	var cat models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("category %q already exists", name)
		}
		cat = models.Category{Name: name}
		if err := tx.Create(&cat).Error; err != nil {
			return apperr.FromDB(err, "category")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: "category created: " + cat.Name,
			After:       cat,
		})
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *Service) RenameCategory(ctx context.Context, actor audit.Actor, id uint, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	var cat models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cat, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return apperr.FromDB(err, "category")
		}
		taken, err := nameTaken(tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("category %q already exists", name)
		}
		before := cat
		cat.Name = name
		if err := tx.Save(&cat).Error; err != nil {
			return apperr.FromDB(err, "category")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("category renamed: %s -> %s", before.Name, cat.Name),
			Before:      before,
			After:       cat,
		})
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory refuses while any product still points at the category.
func (s *Service) DeleteCategory(ctx context.Context, actor audit.Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cat, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return apperr.FromDB(err, "category")
		}

		var using []models.Product
		if err := tx.Select("id", "name").Where("category_id = ?", id).Order("name").Find(&using).Error; err != nil {
			return apperr.FromDB(err, "product")
		}
		if len(using) > 0 {
			refs := make([]Ref, 0, len(using))
			for _, p := range using {
				refs = append(refs, Ref{ID: p.ID, Name: p.Name})
			}
			return apperr.Conflict("category is used by %d product(s)", len(using)).
				WithDetail("products", refs)
		}

		if err := tx.Delete(&cat).Error; err != nil {
			return apperr.FromDB(err, "category")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionDelete,
			Description: "category deleted: " + cat.Name,
			Before:      cat,
		})
	})
}
