package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint                `gorm:"primaryKey"`
	Name          string              `gorm:"size:150;not null"`
	CategoryID    uint                `gorm:"not null;index"`
	Category      *Category           `gorm:"constraint:OnDelete:RESTRICT"`
	OriginalPrice decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	DiscountPrice decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	Description   string              `gorm:"type:text"`
	Image         string              `gorm:"size:255"` // object name inside the image store
	Status        Status              `gorm:"size:20;not null;index"`
	Flavors       []Flavor
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice is what the customer pays: the discounted price when set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.OriginalPrice
}
