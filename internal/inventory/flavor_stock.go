package inventory

import (
	"sort"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockFlavors loads the given flavors with row locks, in ascending id order
// so that two transactions touching the same pair cannot deadlock.
// A missing id is reported as not found.
func LockFlavors(tx *gorm.DB, ids ...uint) (map[uint]*models.Flavor, error) {
	uniq := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	var rows []models.Flavor
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", uniq).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err, "flavor")
	}

	out := make(map[uint]*models.Flavor, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	for _, id := range uniq {
		if _, ok := out[id]; !ok {
			return nil, apperr.NotFound("flavor %d not found", id)
		}
	}
	return out, nil
}

func insufficientStock(available, requested int) *apperr.Error {
	return apperr.Validation("insufficient stock: available %d, requested %d", available, requested).
		WithDetail("available", available).
		WithDetail("requested", requested)
}

// Take removes qty units from a flavor. The update only applies while the
// stock covers it, so stock never goes negative even without row locks.
func Take(tx *gorm.DB, flavorID uint, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be greater than zero")
	}
	res := tx.Model(&models.Flavor{}).
		Where("id = ? AND stock >= ?", flavorID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return apperr.FromDB(res.Error, "flavor")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var f models.Flavor
	if err := tx.Select("id", "stock").First(&f, flavorID).Error; err != nil {
		return apperr.FromDB(err, "flavor")
	}
	return insufficientStock(f.Stock, qty)
}

// Restore puts qty units back on a flavor.
func Restore(tx *gorm.DB, flavorID uint, qty int) error {
	if qty < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	if qty == 0 {
		return nil
	}
	res := tx.Model(&models.Flavor{}).
		Where("id = ?", flavorID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return apperr.FromDB(res.Error, "flavor")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("flavor %d not found", flavorID)
	}
	return nil
}

// Adjust applies a signed delta: positive takes, negative restores.
func Adjust(tx *gorm.DB, flavorID uint, delta int) error {
	switch {
	case delta > 0:
		return Take(tx, flavorID, delta)
	case delta < 0:
		return Restore(tx, flavorID, -delta)
	}
	return nil
}

// ClampStock maps a requested absolute stock to a legal one.
func ClampStock(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
