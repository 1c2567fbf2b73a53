package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flavorshop-backend/internal/media"
	"flavorshop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c *client) do(method, path string, body io.Reader, contentType string) (int, []byte, string) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, resp.Header.Get("Location")
}

func (c *client) json(method, path, body string) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	ct := ""
	if body != "" {
		r, ct = strings.NewReader(body), "application/json"
	}
	status, data, _ := c.do(method, path, r, ct)
	return status, data
}

func TestRoutes(t *testing.T) {
	cfg := testutil.Config(t)
	db := testutil.NewDB(t)
	store, err := media.NewLocalStore(cfg.ProductImagePath, cfg.PublicImageBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.AdminDir, "index.html"), []byte("admin"), 0o644); err != nil {
		t.Fatal(err)
	}
	testutil.User(t, db, "Ana", "ana@example.com", "")

	c := &client{t: t, app: New(cfg, db, media.NewUploader(store))}

	status, _ := c.json("GET", "/api/sales", "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous api call: %d", status)
	}
	status, _, loc := c.do("GET", "/admin/", nil, "")
	if status != fiber.StatusFound || !strings.HasPrefix(loc, cfg.LoginPath) {
		t.Fatalf("anonymous admin page: %d %q", status, loc)
	}

	status, body := c.json("POST", "/api/auth/login", `{"email":"ana@example.com","password":"first-password"}`)
	if status != fiber.StatusOK {
		t.Fatalf("login: %d %s", status, body)
	}
	var login struct {
		Token string `json:"token"`
	}
	json.Unmarshal(body, &login)
	c.token = login.Token

	status, body = c.json("GET", "/api/auth/me", "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte("ana@example.com")) {
		t.Fatalf("me: %d %s", status, body)
	}
	status, body, _ = c.do("GET", "/admin/", nil, "")
	if status != fiber.StatusOK || string(body) != "admin" {
		t.Fatalf("admin page: %d %s", status, body)
	}

	status, body = c.json("POST", "/api/categories", `{"name":"Pods"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("category: %d %s", status, body)
	}

	var form bytes.Buffer
	w := multipart.NewWriter(&form)
	w.WriteField("name", "Ignite V50")
	w.WriteField("category", "Pods")
	w.WriteField("original_price", "60")
	w.WriteField("flavors", "Grape, Mint")
	w.Close()
	status, body, _ = c.do("POST", "/api/products", &form, w.FormDataContentType())
	if status != fiber.StatusCreated {
		t.Fatalf("product: %d %s", status, body)
	}
	var product struct {
		ID      uint `json:"id"`
		Flavors []struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
		} `json:"flavors"`
	}
	json.Unmarshal(body, &product)
	grape := product.Flavors[0].ID

	status, body = c.json("POST", "/api/stock", fmt.Sprintf(`{"product_id":%d,"stock":{"%d":10}}`, product.ID, grape))
	if status != fiber.StatusOK {
		t.Fatalf("stock: %d %s", status, body)
	}

	status, body = c.json("POST", "/api/sales", fmt.Sprintf(`{"flavor_id":%d,"quantity":2,"client_name":"Carlos",
		"receiver_name":"ana","payment_method":"PIX","total_value":"120.00"}`, grape))
	if status != fiber.StatusCreated {
		t.Fatalf("sale: %d %s", status, body)
	}

	status, body = c.json("GET", fmt.Sprintf("/api/stock/%d", product.ID), "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte(`"stock":8`)) {
		t.Fatalf("stock after sale: %d %s", status, body)
	}

	status, body = c.json("GET", "/api/sales/summary", "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte(`"units":2`)) {
		t.Fatalf("summary: %d %s", status, body)
	}

	for _, path := range []string{"/api/users", "/api/audit-logs", "/api/products", "/api/sales"} {
		if status, body := c.json("GET", path, ""); status != fiber.StatusOK {
			t.Fatalf("GET %s: %d %s", path, status, body)
		}
	}

	// public routes work without a session
	c.token = ""
	status, body = c.json("GET", "/api/public/products", "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte("Ignite V50")) {
		t.Fatalf("public products: %d %s", status, body)
	}
	status, body = c.json("GET", fmt.Sprintf("/api/products/%d/flavors", product.ID), "")
	if status != fiber.StatusOK || !bytes.Contains(body, []byte("Grape")) {
		t.Fatalf("public flavors: %d %s", status, body)
	}
	status, body = c.json("POST", "/api/public/orders", fmt.Sprintf(`{"product_id":%d,"flavor_id":%d,
		"name":"Bia","address":"Rua C","payment_method":"PIX"}`, product.ID, grape))
	if status != fiber.StatusOK || !bytes.Contains(body, []byte("wa.me")) {
		t.Fatalf("order: %d %s", status, body)
	}
	status, _ = c.json("GET", "/api/categories", "")
	if status != fiber.StatusOK {
		t.Fatalf("public categories: %d", status)
	}
}
