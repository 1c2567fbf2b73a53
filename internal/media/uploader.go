package media

import (
	"context"
	"log"

	"flavorshop-backend/internal/apperr"

	"github.com/google/uuid"
)

const MaxUploadBytes = 10 << 20

// Uploader turns raw uploads into stored product images.
type Uploader struct {
	Store ImageStore
}

func NewUploader(store ImageStore) *Uploader {
	return &Uploader{Store: store}
}

// Save optimizes data and stores it under a fresh random name.
func (u *Uploader) Save(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("image is empty")
	}
	if len(data) > MaxUploadBytes {
		return "", apperr.Validation("image is larger than %d MB", MaxUploadBytes>>20)
	}
	out, err := Optimize(data)
	if err != nil {
		return "", apperr.Validation("invalid image: %v", err)
	}
	ref, err := u.Store.Put(ctx, uuid.NewString()+".jpg", out)
	if err != nil {
		return "", apperr.Internal(err, "could not store image")
	}
	return ref, nil
}

// Remove deletes a stored image, logging instead of failing.
func (u *Uploader) Remove(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := u.Store.Delete(ctx, ref); err != nil {
		log.Printf("image cleanup failed for %s: %v", ref, err)
	}
}

func (u *Uploader) URL(ref string) string {
	return u.Store.URL(ref)
}
