package models

import "time"

type Flavor struct {
	ID        uint     `gorm:"primaryKey"`
	ProductID uint     `gorm:"not null;uniqueIndex:idx_flavor_product_name"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE"`
	Name      string   `gorm:"size:100;not null;uniqueIndex:idx_flavor_product_name"`
	Stock     int      `gorm:"not null;default:0"`
	Status    Status   `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
