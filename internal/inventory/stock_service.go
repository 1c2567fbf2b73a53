package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/models"

	"gorm.io/gorm"
)

type FlavorStock struct {
	ID     uint          `json:"id"`
	Name   string        `json:"name"`
	Stock  int           `json:"stock"`
	Status models.Status `json:"status"`
}

type ProductStock struct {
	ProductID   uint          `json:"product_id"`
	ProductName string        `json:"product_name"`
	Flavors     []FlavorStock `json:"flavors"`
}

type OverwriteResult struct {
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	Stock       map[uint]int `json:"stock"`
}

type StockService interface {
	All(ctx context.Context) ([]ProductStock, error)
	ForProduct(ctx context.Context, productID uint) (*ProductStock, error)
	Overwrite(ctx context.Context, actor audit.Actor, productID uint, stock map[uint]int) (*OverwriteResult, error)
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func orderedFlavors(db *gorm.DB) *gorm.DB {
	return db.Order("flavors.name asc")
}

func toProductStock(p models.Product) ProductStock {
	ps := ProductStock{
		ProductID:   p.ID,
		ProductName: p.Name,
		Flavors:     make([]FlavorStock, 0, len(p.Flavors)),
	}
	for _, f := range p.Flavors {
		ps.Flavors = append(ps.Flavors, FlavorStock{ID: f.ID, Name: f.Name, Stock: f.Stock, Status: f.Status})
	}
	return ps
}

func (s *Service) All(ctx context.Context) ([]ProductStock, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Flavors", orderedFlavors).
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, apperr.FromDB(err, "stock")
	}
	out := make([]ProductStock, 0, len(products))
	for _, p := range products {
		out = append(out, toProductStock(p))
	}
	return out, nil
}

func (s *Service) ForProduct(ctx context.Context, productID uint) (*ProductStock, error) {
	var p models.Product
	err := s.db.WithContext(ctx).
		Preload("Flavors", orderedFlavors).
		First(&p, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.FromDB(err, "product")
	}
	ps := toProductStock(p)
	return &ps, nil
}

// Overwrite sets absolute stock counts for flavors of one product.
// Either every value is written or none is.
func (s *Service) Overwrite(ctx context.Context, actor audit.Actor, productID uint, stock map[uint]int) (*OverwriteResult, error) {
	if productID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	if len(stock) == 0 {
		return nil, apperr.Validation("stock must list at least one flavor")
	}

	var result *OverwriteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product not found")
			}
			return apperr.FromDB(err, "product")
		}

		var owned []models.Flavor
		if err := tx.Where("product_id = ?", productID).Find(&owned).Error; err != nil {
			return apperr.FromDB(err, "flavor")
		}
		belongs := make(map[uint]bool, len(owned))
		for _, f := range owned {
			belongs[f.ID] = true
		}

		var invalid []uint
		ids := make([]uint, 0, len(stock))
		for id := range stock {
			if !belongs[id] {
				invalid = append(invalid, id)
				continue
			}
			ids = append(ids, id)
		}
		if len(invalid) > 0 {
			sort.Slice(invalid, func(i, j int) bool { return invalid[i] < invalid[j] })
			return apperr.Validation("some flavors do not belong to product %d", productID).
				WithDetail("invalid_flavors", invalid)
		}

		locked, err := LockFlavors(tx, ids...)
		if err != nil {
			return err
		}

		before := make(map[uint]int, len(ids))
		after := make(map[uint]int, len(ids))
		for _, id := range ids {
			v := ClampStock(stock[id])
			before[id] = locked[id].Stock
			after[id] = v
			if err := tx.Model(&models.Flavor{}).Where("id = ?", id).UpdateColumn("stock", v).Error; err != nil {
				return apperr.FromDB(err, "flavor")
			}
		}

		if err := audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "flavor_stock",
			EntityID:    productID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("stock overwritten for %d flavor(s) of %s", len(ids), product.Name),
			Before:      before,
			After:       after,
		}); err != nil {
			return err
		}

		var current []models.Flavor
		if err := tx.Where("product_id = ?", productID).Find(&current).Error; err != nil {
			return apperr.FromDB(err, "flavor")
		}
		result = &OverwriteResult{
			ProductID:   product.ID,
			ProductName: product.Name,
			Stock:       make(map[uint]int, len(current)),
		}
		for _, f := range current {
			result.Stock[f.ID] = f.Stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
