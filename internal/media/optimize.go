package media

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	MaxWidth    = 1200
	JPEGQuality = 95
)

// Optimize decodes an uploaded image (jpeg, png, gif, webp, bmp, tiff),
// shrinks it to at most MaxWidth keeping the aspect ratio and re-encodes it
// as JPEG. Smaller images are never enlarged.
// JPEG instead of WebP keeps the build free of CGO.
func Optimize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
