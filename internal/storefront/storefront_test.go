package storefront

import (
	"context"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/models"
	"flavorshop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	product models.Product
	grape   models.Flavor
	mint    models.Flavor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	cat := testutil.Category(t, db, "Pods")
	p := testutil.Product(t, db, cat.ID, "Ignite V50")
	db.Model(&p).Updates(map[string]any{"image": "abc.jpg", "discount_price": decimal.RequireFromString("49.90")})
	fx := &fixture{
		db:      db,
		svc:     NewService(db, func(ref string) string { return "/images/" + ref }, "5511999990000", "Loja Teste"),
		product: p,
		grape:   testutil.Flavor(t, db, p.ID, "Grape", 3),
		mint:    testutil.Flavor(t, db, p.ID, "Mint", 0),
	}
	off := testutil.Flavor(t, db, p.ID, "Cola", 5)
	db.Model(&off).Update("status", models.StatusDisabled)

	hidden := testutil.Product(t, db, cat.ID, "Old Pod")
	db.Model(&hidden).Update("status", models.StatusDisabled)
	return fx
}

func TestDiscountPercent(t *testing.T) {
	cases := []struct {
		orig, disc string
		want       int64
	}{
		{"59.90", "49.90", 17},
		{"100", "75", 25},
		{"100", "", 0},
		{"3", "2", 33},
	}
	for _, tc := range cases {
		p := models.Product{OriginalPrice: decimal.RequireFromString(tc.orig)}
		if tc.disc != "" {
			p.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(tc.disc))
		}
		if got := DiscountPercent(p); got != tc.want {
			t.Errorf("DiscountPercent(%s, %s) = %d, want %d", tc.orig, tc.disc, got, tc.want)
		}
	}
}

func TestProductsListsOnlyActive(t *testing.T) {
	fx := setup(t)
	list, err := fx.svc.Products(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("products = %+v", list)
	}
	p := list[0]
	if !p.Price.Equal(decimal.RequireFromString("49.90")) || p.DiscountPercent != 17 {
		t.Fatalf("price = %s discount = %d", p.Price, p.DiscountPercent)
	}
	if p.ImageURL != "/images/abc.jpg" || p.Category.Name != "Pods" {
		t.Fatalf("view = %+v", p)
	}
	if len(p.Flavors) != 2 || p.Flavors[0].Name != "Grape" || !p.Flavors[0].InStock || p.Flavors[1].InStock {
		t.Fatalf("flavors = %+v", p.Flavors)
	}

	other, err := fx.svc.Products(context.Background(), fx.product.CategoryID+1)
	if err != nil || len(other) != 0 {
		t.Fatalf("category filter = %+v, %v", other, err)
	}
}

func TestOrderLink(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	link, err := fx.svc.OrderLink(ctx, Order{
		ProductID:     fx.product.ID,
		Flavor:        "grape",
		Name:          "Carlos",
		Address:       "Rua A, 10",
		PaymentMethod: "dinheiro",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(link, "https://wa.me/5511999990000?text=") || strings.Contains(link, "+") {
		t.Fatalf("link = %s", link)
	}
	u, _ := url.Parse(link)
	msg := u.Query().Get("text")
	for _, want := range []string{"*Nome:* Carlos", "*Sabor:* Grape", "*Valor:* R$ 49,90", "*Forma de Pagamento:* Dinheiro", "Loja Teste"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Observações") {
		t.Errorf("empty notes should be left out:\n%s", msg)
	}

	cases := []struct {
		name string
		o    Order
		kind apperr.Kind
	}{
		{"missing name", Order{ProductID: fx.product.ID, FlavorID: fx.grape.ID, Address: "x", PaymentMethod: "PIX"}, apperr.KindValidation},
		{"on credit", Order{ProductID: fx.product.ID, FlavorID: fx.grape.ID, Name: "a", Address: "x", PaymentMethod: "FIADO"}, apperr.KindValidation},
		{"out of stock", Order{ProductID: fx.product.ID, FlavorID: fx.mint.ID, Name: "a", Address: "x", PaymentMethod: "PIX"}, apperr.KindConflict},
		{"disabled flavor", Order{ProductID: fx.product.ID, Flavor: "Cola", Name: "a", Address: "x", PaymentMethod: "PIX"}, apperr.KindNotFound},
		{"unknown product", Order{ProductID: 999, Flavor: "Grape", Name: "a", Address: "x", PaymentMethod: "PIX"}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		if _, err := fx.svc.OrderLink(ctx, tc.o); !apperr.IsKind(err, tc.kind) {
			t.Errorf("%s: got %v, want %s", tc.name, err, tc.kind)
		}
	}
}

func TestHandlers(t *testing.T) {
	fx := setup(t)
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Get("/products", ProductsHandler(fx.svc))
	app.Post("/orders", OrderHandler(fx.svc))

	resp, err := app.Test(httptest.NewRequest("GET", "/products?category=x", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad category: %d", resp.StatusCode)
	}

	req := httptest.NewRequest("POST", "/orders", strings.NewReader(
		`{"product_id":1,"flavor":"Grape","name":"Ana","address":"Rua B","payment_method":"PIX","notes":"sem gelo"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(body), `"url":"https://wa.me/`) {
		t.Fatalf("order: %d %s", resp.StatusCode, body)
	}
}
