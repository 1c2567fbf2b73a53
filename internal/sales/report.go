package sales

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type DeliveryFilter string

const (
	DeliveryAny     DeliveryFilter = ""
	DeliveryWith    DeliveryFilter = "with"
	DeliveryWithout DeliveryFilter = "without"
)

type CreditFilter string

const (
	CreditAny CreditFilter = ""
	CreditYes CreditFilter = "yes"
	CreditNo  CreditFilter = "no"
)

// Filter narrows the sales report. DateTo is inclusive.
type Filter struct {
	Receiver string
	Delivery DeliveryFilter
	OnCredit CreditFilter
	DateFrom *time.Time
	DateTo   *time.Time
}

func ParseDeliveryFilter(s string) (DeliveryFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return DeliveryAny, nil
	case "with", "com_entrega":
		return DeliveryWith, nil
	case "without", "sem_entrega":
		return DeliveryWithout, nil
	}
	return "", apperr.Validation("delivery must be with or without")
}

func ParseCreditFilter(s string) (CreditFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return CreditAny, nil
	case "yes", "true", "sim":
		return CreditYes, nil
	case "no", "false", "nao", "não":
		return CreditNo, nil
	}
	return "", apperr.Validation("on_credit must be yes or no")
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	if f.Receiver != "" {
		db = db.Where("sales.received_by_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&models.User{}).Select("id").Where("name = ?", f.Receiver))
	}
	switch f.Delivery {
	case DeliveryWith:
		db = db.Where("sales.delivery_fee > 0")
	case DeliveryWithout:
		db = db.Where("(sales.delivery_fee IS NULL OR sales.delivery_fee = 0)")
	}
	switch f.OnCredit {
	case CreditYes:
		db = db.Where("sales.on_credit = ?", true)
	case CreditNo:
		db = db.Where("sales.on_credit = ?", false)
	}
	if f.DateFrom != nil {
		db = db.Where("sales.sale_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		end := f.DateTo.Add(24*time.Hour - time.Millisecond)
		db = db.Where("sales.sale_date <= ?", end)
	}
	return db
}

func (s *Service) find(ctx context.Context, f Filter, withRel bool) ([]models.Sale, error) {
	q := s.db.WithContext(ctx).Model(&models.Sale{})
	if withRel {
		q = withRelations(q)
	}
	var rows []models.Sale
	if err := f.apply(q).Order("sales.created_at DESC").Order("sales.id DESC").Find(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	return rows, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]SaleView, error) {
	rows, err := s.find(ctx, f, true)
	if err != nil {
		return nil, err
	}
	out := make([]SaleView, 0, len(rows))
	for i := range rows {
		out = append(out, toView(&rows[i]))
	}
	return out, nil
}

type Summary struct {
	TotalSales int             `json:"total_sales"`
	Units      int             `json:"units"`
	Revenue    decimal.Decimal `json:"revenue"`
	Deliveries int             `json:"deliveries"`
	OnCredit   decimal.Decimal `json:"on_credit_value"`
	Receivers  []string        `json:"receivers"`
}

func (s *Service) Summary(ctx context.Context, f Filter) (*Summary, error) {
	rows, err := s.find(ctx, f, false)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Revenue: decimal.Zero, OnCredit: decimal.Zero}
	for _, r := range rows {
		sum.TotalSales++
		sum.Units += r.Quantity
		sum.Revenue = sum.Revenue.Add(r.TotalValue)
		if r.HasDelivery() {
			sum.Deliveries++
		}
		if r.OnCredit {
			sum.OnCredit = sum.OnCredit.Add(r.TotalValue)
		}
	}

	db := s.db.WithContext(ctx)
	err = db.Model(&models.User{}).
		Where("id IN (?)", db.Model(&models.Sale{}).Select("received_by_id")).
		Order("name asc").
		Pluck("name", &sum.Receivers).Error
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	if sum.Receivers == nil {
		sum.Receivers = []string{}
	}
	return sum, nil
}

var exportHeader = []any{
	"Date", "Client", "Product", "Flavor", "Category", "Quantity",
	"Value", "Payment", "Delivery fee", "On credit", "Received by",
}

// ExportXLSX renders the filtered report as a spreadsheet.
func ExportXLSX(views []SaleView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, v := range views {
		fee := 0.0
		if v.DeliveryFee.Valid {
			fee = v.DeliveryFee.Decimal.InexactFloat64()
		}
		credit := "no"
		if v.OnCredit {
			credit = "yes"
		}
		row := []any{
			v.SaleDate, v.ClientName, v.Product.Name, v.Flavor.Name, v.Category.Name, v.Quantity,
			v.TotalValue.InexactFloat64(), string(v.PaymentMethod), fee, credit, v.Receiver.Name,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
