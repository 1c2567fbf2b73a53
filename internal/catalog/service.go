package catalog

import (
	"context"

	"flavorshop-backend/internal/media"

	"gorm.io/gorm"
)

type Ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Images is the part of the media layer the catalog needs.
type Images interface {
	Save(ctx context.Context, data []byte) (string, error)
	Remove(ctx context.Context, ref string)
	URL(ref string) string
}

var _ Images = (*media.Uploader)(nil)

type Service struct {
	db     *gorm.DB
	images Images
}

func NewService(db *gorm.DB, images Images) *Service {
	return &Service{db: db, images: images}
}
