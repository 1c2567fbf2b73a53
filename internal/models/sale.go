package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID            uint                `gorm:"primaryKey"`
	FlavorID      uint                `gorm:"not null;index"`
	Flavor        *Flavor             `gorm:"constraint:OnDelete:RESTRICT"`
	ClientName    string              `gorm:"size:150;not null"`
	Quantity      int                 `gorm:"not null"`
	TotalValue    decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	SaleDate      time.Time           `gorm:"not null;index"`
	PaymentMethod PaymentMethod       `gorm:"size:20;not null"`
	DeliveryFee   decimal.NullDecimal `gorm:"type:numeric(10,2)"` // null or 0: no delivery
	OnCredit      bool                `gorm:"not null;default:false"`
	ReceivedByID  uint                `gorm:"not null;index"`
	ReceivedBy    *User               `gorm:"constraint:OnDelete:RESTRICT"`
	CreatedAt     time.Time           `gorm:"index"`
	UpdatedAt     time.Time
}

func (s Sale) HasDelivery() bool {
	return s.DeliveryFee.Valid && s.DeliveryFee.Decimal.IsPositive()
}
