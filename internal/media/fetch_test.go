package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"flavorshop-backend/internal/apperr"
)

func TestFetch(t *testing.T) {
	img := pngBytes(t, 8, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			w.Write(img)
		case "/empty":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	data, err := Fetch(ctx, srv.URL+"/photo.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(img) {
		t.Fatalf("got %d bytes, want %d", len(data), len(img))
	}

	for _, u := range []string{srv.URL + "/missing", srv.URL + "/empty", "ftp://example.com/a.png", "not a url"} {
		if _, err := Fetch(ctx, u); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Fetch(%q) = %v, want validation error", u, err)
		}
	}
}
