package sales

import (
	"errors"
	"time"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SaleView is a sale with the names needed for display resolved.
type SaleView struct {
	ID            uint                 `json:"id"`
	ClientName    string               `json:"client_name"`
	Product       Ref                  `json:"product"`
	Flavor        Ref                  `json:"flavor"`
	Category      Ref                  `json:"category"`
	Quantity      int                  `json:"quantity"`
	TotalValue    decimal.Decimal      `json:"total_value"`
	SaleDate      string               `json:"sale_date"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Delivery      bool                 `json:"delivery"`
	DeliveryFee   decimal.NullDecimal  `json:"delivery_fee"`
	OnCredit      bool                 `json:"on_credit"`
	Receiver      Ref                  `json:"receiver"`
	CreatedAt     time.Time            `json:"created_at"`
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Flavor.Product.Category").Preload("ReceivedBy")
}

func toView(s *models.Sale) SaleView {
	v := SaleView{
		ID:            s.ID,
		ClientName:    s.ClientName,
		Quantity:      s.Quantity,
		TotalValue:    s.TotalValue,
		SaleDate:      s.SaleDate.Format(dateLayout),
		PaymentMethod: s.PaymentMethod,
		Delivery:      s.HasDelivery(),
		DeliveryFee:   s.DeliveryFee,
		OnCredit:      s.OnCredit,
		CreatedAt:     s.CreatedAt,
	}
	if f := s.Flavor; f != nil {
		v.Flavor = Ref{ID: f.ID, Name: f.Name}
		if p := f.Product; p != nil {
			v.Product = Ref{ID: p.ID, Name: p.Name}
			if c := p.Category; c != nil {
				v.Category = Ref{ID: c.ID, Name: c.Name}
			}
		}
	}
	if u := s.ReceivedBy; u != nil {
		v.Receiver = Ref{ID: u.ID, Name: u.Name}
	}
	return v
}

func loadView(db *gorm.DB, id uint) (*SaleView, error) {
	var sale models.Sale
	if err := withRelations(db).First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sale not found")
		}
		return nil, apperr.FromDB(err, "sale")
	}
	v := toView(&sale)
	return &v, nil
}
