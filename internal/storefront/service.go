// Package storefront serves the public catalog and turns customer orders into
// WhatsApp chat links.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type FlavorView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	InStock bool   `json:"in_stock"`
}

type ProductView struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Category        Ref             `json:"category"`
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent int64           `json:"discount_percent"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"image_url"`
	Flavors         []FlavorView    `json:"flavors"`
}

type Order struct {
	ProductID     uint   `json:"product_id"`
	FlavorID      uint   `json:"flavor_id"`
	Flavor        string `json:"flavor"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

type Storefront interface {
	Products(ctx context.Context, categoryID uint) ([]ProductView, error)
	OrderLink(ctx context.Context, o Order) (string, error)
}

type Service struct {
	db        *gorm.DB
	imageURL  func(ref string) string
	whatsApp  string
	storeName string
}

func NewService(db *gorm.DB, imageURL func(string) string, whatsAppNumber, storeName string) *Service {
	return &Service{db: db, imageURL: imageURL, whatsApp: whatsAppNumber, storeName: storeName}
}

// DiscountPercent rounds the relative discount to a whole percentage.
func DiscountPercent(p models.Product) int64 {
	if !p.DiscountPrice.Valid || !p.OriginalPrice.IsPositive() {
		return 0
	}
	off := p.OriginalPrice.Sub(p.DiscountPrice.Decimal).Div(p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return off.Round(0).IntPart()
}

func (s *Service) Products(ctx context.Context, categoryID uint) ([]ProductView, error) {
	q := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Flavors", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive).Order("flavors.name asc")
		}).
		Where("status = ?", models.StatusActive)
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var products []models.Product
	if err := q.Order("name asc").Find(&products).Error; err != nil {
		return nil, apperr.FromDB(err, "product")
	}

	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		v := ProductView{
			ID:              p.ID,
			Name:            p.Name,
			Price:           p.EffectivePrice(),
			OriginalPrice:   p.OriginalPrice,
			DiscountPercent: DiscountPercent(p),
			Description:     p.Description,
			Flavors:         make([]FlavorView, 0, len(p.Flavors)),
		}
		if p.Category != nil {
			v.Category = Ref{ID: p.Category.ID, Name: p.Category.Name}
		}
		if p.Image != "" && s.imageURL != nil {
			v.ImageURL = s.imageURL(p.Image)
		}
		for _, f := range p.Flavors {
			v.Flavors = append(v.Flavors, FlavorView{ID: f.ID, Name: f.Name, InStock: f.Stock > 0})
		}
		out = append(out, v)
	}
	return out, nil
}

// OrderLink validates the order against the live catalog and returns a wa.me
// link with the order message prefilled.
func (s *Service) OrderLink(ctx context.Context, o Order) (string, error) {
	if s.whatsApp == "" {
		return "", apperr.Internal(errors.New("WHATSAPP_NUMBER is empty"), "online orders are unavailable")
	}
	o.Name = strings.TrimSpace(o.Name)
	o.Address = strings.TrimSpace(o.Address)
	o.Flavor = strings.TrimSpace(o.Flavor)
	o.Notes = strings.TrimSpace(o.Notes)

	switch {
	case o.ProductID == 0:
		return "", apperr.Validation("product_id is required")
	case o.FlavorID == 0 && o.Flavor == "":
		return "", apperr.Validation("flavor is required")
	case o.Name == "":
		return "", apperr.Validation("name is required")
	case o.Address == "":
		return "", apperr.Validation("address is required")
	}
	pm, err := models.ParsePaymentMethod(o.PaymentMethod)
	if err != nil || pm == models.PaymentOnCredit {
		return "", apperr.Validation("payment_method must be one of PIX, CASH, CREDIT, DEBIT")
	}

	db := s.db.WithContext(ctx)
	var p models.Product
	if err := db.Where("id = ? AND status = ?", o.ProductID, models.StatusActive).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("product not found or inactive")
		}
		return "", apperr.FromDB(err, "product")
	}

	var f models.Flavor
	fq := db.Where("product_id = ? AND status = ?", p.ID, models.StatusActive)
	if o.FlavorID != 0 {
		fq = fq.Where("id = ?", o.FlavorID)
	} else {
		fq = fq.Where("LOWER(name) = LOWER(?)", o.Flavor)
	}
	if err := fq.First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("flavor not available for this product")
		}
		return "", apperr.FromDB(err, "flavor")
	}
	if f.Stock <= 0 {
		return "", apperr.Conflict("flavor %s is out of stock", f.Name)
	}

	msg := orderMessage(s.storeName, o, p, f.Name, pm)
	return "https://wa.me/" + s.whatsApp + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20"), nil
}

func brl(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func orderMessage(store string, o Order, p models.Product, flavor string, pm models.PaymentMethod) string {
	var b strings.Builder
	b.WriteString("*NOVO PEDIDO RECEBIDO*\n\n")
	fmt.Fprintf(&b, "*Nome:* %s\n", o.Name)
	fmt.Fprintf(&b, "*Produto:* %s\n", p.Name)
	fmt.Fprintf(&b, "*Sabor:* %s\n", flavor)
	fmt.Fprintf(&b, "*Endereço:* %s\n", o.Address)
	fmt.Fprintf(&b, "*Valor:* %s\n", brl(p.EffectivePrice()))
	fmt.Fprintf(&b, "*Forma de Pagamento:* %s\n", pm.Label())
	if o.Notes != "" {
		fmt.Fprintf(&b, "*Observações:* %s\n", o.Notes)
	}
	b.WriteString("\nSeu pedido está sendo preparado com cuidado.\n")
	fmt.Fprintf(&b, "Obrigado por escolher a %s.", store)
	return b.String()
}
