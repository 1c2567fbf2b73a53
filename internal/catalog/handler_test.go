package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

func newApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Get("/categories", ListCategoriesHandler(svc))
	app.Post("/categories", CreateCategoryHandler(svc))
	app.Put("/categories/:id", RenameCategoryHandler(svc))
	app.Delete("/categories/:id", DeleteCategoryHandler(svc))
	app.Get("/products", ListProductsHandler(svc))
	app.Post("/products", CreateProductHandler(svc))
	app.Get("/products/:id", GetProductHandler(svc))
	app.Put("/products/:id", UpdateProductHandler(svc))
	app.Delete("/products/:id", DeleteProductHandler(svc))
	app.Get("/products/:id/flavors", ActiveFlavorsHandler(svc))
	return app
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(image)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func do(t *testing.T, app *fiber.App, method, path string, body io.Reader, contentType string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestCategoryHandlers(t *testing.T) {
	e := newEnv(t)
	app := newApp(e.svc)

	status, body := do(t, app, "POST", "/categories", strings.NewReader(`{"name":"Pods"}`), "application/json")
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %s", status, body)
	}
	var created Ref
	json.Unmarshal(body, &created)

	status, body = do(t, app, "POST", "/categories", strings.NewReader(`{"name":"PODS"}`), "application/json")
	if status != fiber.StatusConflict {
		t.Fatalf("duplicate: %d %s", status, body)
	}

	status, _ = do(t, app, "PUT", "/categories/abc", strings.NewReader(`{"name":"Vapes"}`), "application/json")
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad id: %d", status)
	}

	testutil.Product(t, e.db, created.ID, "Ignite V50")
	status, body = do(t, app, "DELETE", fmt.Sprintf("/categories/%d", created.ID), nil, "")
	if status != fiber.StatusConflict || !bytes.Contains(body, []byte("Ignite V50")) {
		t.Fatalf("delete in use: %d %s", status, body)
	}

	status, body = do(t, app, "GET", "/categories", nil, "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte(`"product_count":1`)) {
		t.Fatalf("list: %d %s", status, body)
	}
}

func TestProductHandlers(t *testing.T) {
	e := newEnv(t)
	app := newApp(e.svc)
	testutil.Category(t, e.db, "Pods")

	form, ct := multipartBody(t, map[string]string{
		"name":           "Ignite V50",
		"category":       "Pods",
		"original_price": "79,90",
		"discount_price": "69,90",
		"flavors":        `["Grape","Mint"]`,
	}, tinyPNG(t))
	status, body := do(t, app, "POST", "/products", form, ct)
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %s", status, body)
	}
	var p ProductView
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Flavors) != 2 || p.ImageURL == "" || p.DiscountPrice.Decimal.String() != "69.9" {
		t.Fatalf("product = %+v", p)
	}

	// omitted flavors field keeps the list; an empty discount clears it
	form, ct = multipartBody(t, map[string]string{
		"name":           "Ignite V50",
		"category":       "Pods",
		"original_price": "79.90",
		"discount_price": "",
		"description":    "5000 puffs",
		"status":         "DESATIVADO",
	}, nil)
	status, body = do(t, app, "PUT", fmt.Sprintf("/products/%d", p.ID), form, ct)
	if status != fiber.StatusOK {
		t.Fatalf("update: %d %s", status, body)
	}
	var up ProductView
	json.Unmarshal(body, &up)
	if len(up.Flavors) != 2 || up.DiscountPrice.Valid || up.Status != "DISABLED" {
		t.Fatalf("updated = %+v", up)
	}

	status, _ = do(t, app, "GET", fmt.Sprintf("/products/%d/flavors", p.ID), nil, "")
	if status != fiber.StatusNotFound {
		t.Fatalf("flavors of disabled product: %d", status)
	}

	status, body = do(t, app, "GET", "/products?status=DISABLED", nil, "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte("Ignite V50")) {
		t.Fatalf("list disabled: %d %s", status, body)
	}
	status, _ = do(t, app, "GET", "/products?status=maybe", nil, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad status filter: %d", status)
	}

	form, ct = multipartBody(t, map[string]string{"name": "X", "category": "Pods", "original_price": "abc"}, nil)
	status, _ = do(t, app, "POST", "/products", form, ct)
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad price: %d", status)
	}

	status, _ = do(t, app, "DELETE", fmt.Sprintf("/products/%d", p.ID), nil, "")
	if status != fiber.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	status, _ = do(t, app, "GET", fmt.Sprintf("/products/%d", p.ID), nil, "")
	if status != fiber.StatusNotFound {
		t.Fatalf("get deleted: %d", status)
	}
}

func TestProductImageFromURL(t *testing.T) {
	e := newEnv(t)
	app := newApp(e.svc)
	testutil.Category(t, e.db, "Pods")

	img := tinyPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	form, ct := multipartBody(t, map[string]string{
		"name":           "Ignite V50",
		"category":       "Pods",
		"original_price": "79.90",
		"image_url":      srv.URL + "/photo.png",
	}, nil)
	status, body := do(t, app, "POST", "/products", form, ct)
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %s", status, body)
	}
	var p ProductView
	json.Unmarshal(body, &p)
	if p.Image == "" {
		t.Fatalf("image not stored: %+v", p)
	}
	if files := e.files(t); len(files) != 1 {
		t.Fatalf("files = %v", files)
	}
}
