package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), 400},
		{Unauthorized("who"), 401},
		{Forbidden("no"), 403},
		{NotFound("gone"), 404},
		{Conflict("dup"), 409},
		{Internal(errors.New("boom"), "oops"), 500},
	}
	for _, tc := range cases {
		if got := tc.err.Status(); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestFromDB(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), KindNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, KindConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, KindConflict},
		{"pg unique", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, KindConflict},
		{"pg other", &pgconn.PgError{Code: "42P01"}, KindInternal},
		{"plain", errors.New("connection reset"), KindInternal},
		{"already classified", Validation("x"), KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := As(FromDB(tc.err, "sale"))
			if !ok {
				t.Fatalf("FromDB did not return *Error")
			}
			if e.Kind != tc.want {
				t.Fatalf("kind = %s, want %s", e.Kind, tc.want)
			}
		})
	}
	if FromDB(nil, "sale") != nil {
		t.Fatal("FromDB(nil) should be nil")
	}
}

func TestWithDetail(t *testing.T) {
	e := Conflict("category in use").WithDetail("products", []string{"a"})
	if _, ok := e.Details["products"]; !ok {
		t.Fatal("detail not attached")
	}
}

func TestErrorHandlerRendersDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return Conflict("category in use").WithDetail("count", 2)
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("secret internals")
	})

	cases := []struct {
		path   string
		status int
		want   string
	}{
		{"/conflict", 409, `{"details":{"count":2},"error":"category in use"}`},
		{"/fiber", 418, `{"error":"short and stout"}`},
		{"/plain", 500, `{"error":"unexpected server error"}`},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != tc.status || string(body) != tc.want {
			t.Errorf("%s: %d %s", tc.path, resp.StatusCode, body)
		}
	}
}
