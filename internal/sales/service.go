package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/inventory"
	"flavorshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleInput carries the mutable fields of a sale. The receiver is resolved
// by ReceiverID when set, otherwise by ReceiverName.
type SaleInput struct {
	FlavorID      uint
	Quantity      int
	ClientName    string
	ReceiverID    uint
	ReceiverName  string
	SaleDate      time.Time
	Delivery      bool
	DeliveryFee   decimal.NullDecimal
	PaymentMethod models.PaymentMethod
	OnCredit      bool
	TotalValue    decimal.Decimal
}

type SaleService interface {
	Register(ctx context.Context, actor audit.Actor, in SaleInput) (*SaleView, error)
	Edit(ctx context.Context, actor audit.Actor, saleID uint, in SaleInput) (*SaleView, error)
	Delete(ctx context.Context, actor audit.Actor, saleID uint) error
	List(ctx context.Context, f Filter) ([]SaleView, error)
	Summary(ctx context.Context, f Filter) (*Summary, error)
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// today is the current calendar date, stored as midnight UTC like every sale date.
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) normalize(in *SaleInput) error {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ReceiverName = strings.TrimSpace(in.ReceiverName)

	switch {
	case in.FlavorID == 0:
		return apperr.Validation("flavor_id is required")
	case in.Quantity <= 0:
		return apperr.Validation("quantity must be greater than zero")
	case in.ClientName == "":
		return apperr.Validation("client_name is required")
	case in.ReceiverID == 0 && in.ReceiverName == "":
		return apperr.Validation("receiver is required")
	case !in.TotalValue.IsPositive():
		return apperr.Validation("total_value must be greater than zero")
	}

	if in.PaymentMethod == "" {
		return apperr.Validation("payment_method is required")
	}
	pm, err := models.ParsePaymentMethod(string(in.PaymentMethod))
	if err != nil {
		return apperr.Validation("%v", err)
	}
	in.PaymentMethod = pm
	if in.PaymentMethod == models.PaymentOnCredit {
		in.OnCredit = true
	}

	if in.Delivery {
		if !in.DeliveryFee.Valid || !in.DeliveryFee.Decimal.IsPositive() {
			return apperr.Validation("delivery_fee must be greater than zero for deliveries")
		}
	} else {
		in.DeliveryFee = decimal.NullDecimal{}
	}

	if in.SaleDate.IsZero() {
		in.SaleDate = s.today()
	}
	return nil
}

func resolveReceiver(tx *gorm.DB, id uint, name string) (*models.User, error) {
	var u models.User
	var err error
	if id != 0 {
		err = tx.First(&u, id).Error
	} else {
		err = tx.Where("LOWER(name) = LOWER(?)", name).Order("id").First(&u).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("receiving user not found")
		}
		return nil, apperr.FromDB(err, "user")
	}
	return &u, nil
}

func lockSale(tx *gorm.DB, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sale not found")
		}
		return nil, apperr.FromDB(err, "sale")
	}
	return &sale, nil
}

// Register decrements the flavor stock and records the sale in one transaction.
func (s *Service) Register(ctx context.Context, actor audit.Actor, in SaleInput) (*SaleView, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	var view *SaleView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := inventory.LockFlavors(tx, in.FlavorID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.NotFound("flavor not found")
			}
			return err
		}
		flavor := locked[in.FlavorID]
		if flavor.Stock < in.Quantity {
			return apperr.Validation("insufficient stock: available %d, requested %d", flavor.Stock, in.Quantity).
				WithDetail("available", flavor.Stock).
				WithDetail("requested", in.Quantity)
		}

		receiver, err := resolveReceiver(tx, in.ReceiverID, in.ReceiverName)
		if err != nil {
			return err
		}

		if err := inventory.Take(tx, flavor.ID, in.Quantity); err != nil {
			return err
		}

		sale := models.Sale{
			FlavorID:      flavor.ID,
			ClientName:    in.ClientName,
			Quantity:      in.Quantity,
			TotalValue:    in.TotalValue,
			SaleDate:      in.SaleDate,
			PaymentMethod: in.PaymentMethod,
			DeliveryFee:   in.DeliveryFee,
			OnCredit:      in.OnCredit,
			ReceivedByID:  receiver.ID,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return apperr.FromDB(err, "sale")
		}

		if err := audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("sale of %d x %s to %s", sale.Quantity, flavor.Name, sale.ClientName),
			After:       snapshot(&sale),
		}); err != nil {
			return err
		}

		view, err = loadView(tx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Edit rewrites a sale and moves stock by the net difference:
// same flavor applies new-old, a flavor change restores the old flavor in
// full and takes the new quantity from the new one.
func (s *Service) Edit(ctx context.Context, actor audit.Actor, saleID uint, in SaleInput) (*SaleView, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	var view *SaleView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockSale(tx, saleID)
		if err != nil {
			return err
		}
		before := snapshot(sale)

		// both rows are locked, so available reflects every committed edit
		locked, err := inventory.LockFlavors(tx, sale.FlavorID, in.FlavorID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.NotFound("flavor not found")
			}
			return err
		}
		target := locked[in.FlavorID]
		sameFlavor := sale.FlavorID == in.FlavorID

		available := target.Stock
		if sameFlavor {
			available += sale.Quantity
		}
		if in.Quantity > available {
			return apperr.Validation("invalid quantity: only %d in stock", available).
				WithDetail("available", available)
		}

		receiver, err := resolveReceiver(tx, in.ReceiverID, in.ReceiverName)
		if err != nil {
			return err
		}

		if sameFlavor {
			if err := inventory.Adjust(tx, sale.FlavorID, in.Quantity-sale.Quantity); err != nil {
				return err
			}
		} else {
			if err := inventory.Restore(tx, sale.FlavorID, sale.Quantity); err != nil {
				return err
			}
			if err := inventory.Take(tx, in.FlavorID, in.Quantity); err != nil {
				return err
			}
		}

		sale.FlavorID = in.FlavorID
		sale.Quantity = in.Quantity
		sale.ClientName = in.ClientName
		sale.TotalValue = in.TotalValue
		sale.SaleDate = in.SaleDate
		sale.PaymentMethod = in.PaymentMethod
		sale.DeliveryFee = in.DeliveryFee
		sale.OnCredit = in.OnCredit
		sale.ReceivedByID = receiver.ID
		if err := tx.Omit(clause.Associations).Save(sale).Error; err != nil {
			return apperr.FromDB(err, "sale")
		}

		if err := audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("sale %d edited", sale.ID),
			Before:      before,
			After:       snapshot(sale),
		}); err != nil {
			return err
		}

		view, err = loadView(tx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete puts the sold quantity back on the flavor and removes the sale.
func (s *Service) Delete(ctx context.Context, actor audit.Actor, saleID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockSale(tx, saleID)
		if err != nil {
			return err
		}
		if err := inventory.Restore(tx, sale.FlavorID, sale.Quantity); err != nil {
			return err
		}
		if err := tx.Delete(&models.Sale{}, sale.ID).Error; err != nil {
			return apperr.FromDB(err, "sale")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("sale %d deleted, %d unit(s) restored", sale.ID, sale.Quantity),
			Before:      snapshot(sale),
		})
	})
}

type saleSnapshot struct {
	FlavorID      uint                 `json:"flavor_id"`
	Quantity      int                  `json:"quantity"`
	ClientName    string               `json:"client_name"`
	TotalValue    decimal.Decimal      `json:"total_value"`
	SaleDate      string               `json:"sale_date"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	DeliveryFee   decimal.NullDecimal  `json:"delivery_fee"`
	OnCredit      bool                 `json:"on_credit"`
	ReceivedByID  uint                 `json:"received_by_id"`
}

func snapshot(s *models.Sale) saleSnapshot {
	return saleSnapshot{
		FlavorID:      s.FlavorID,
		Quantity:      s.Quantity,
		ClientName:    s.ClientName,
		TotalValue:    s.TotalValue,
		SaleDate:      s.SaleDate.Format(dateLayout),
		PaymentMethod: s.PaymentMethod,
		DeliveryFee:   s.DeliveryFee,
		OnCredit:      s.OnCredit,
		ReceivedByID:  s.ReceivedByID,
	}
}
