package media

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"flavorshop-backend/internal/apperr"
)

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// Fetch downloads a remote image so it can go through the same pipeline as an
// upload. Only http(s) URLs are accepted and the body is capped at
// MaxUploadBytes.
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Validation("image_url must be an http(s) URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.Validation("image_url must be an http(s) URL")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; flavorshop-image-fetch)")

	resp, err := fetchClient.Do(req)
	if err != nil {
		return nil, apperr.Validation("could not download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Validation("could not download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxUploadBytes+1))
	if err != nil {
		return nil, apperr.Validation("could not download image: %v", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, apperr.Validation("image is larger than %d MB", MaxUploadBytes>>20)
	}
	if len(data) == 0 {
		return nil, apperr.Validation("image at %s is empty", u.Host)
	}
	return data, nil
}
