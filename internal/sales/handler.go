package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/auth"
	"flavorshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SaleRequest struct {
	FlavorID      uint             `json:"flavor_id"`
	Quantity      int              `json:"quantity"`
	ClientName    string           `json:"client_name"`
	ReceiverID    uint             `json:"receiver_id"`
	ReceiverName  string           `json:"receiver_name"`
	SaleDate      string           `json:"sale_date"` // "2025-03-14"
	Delivery      bool             `json:"delivery"`
	DeliveryFee   *decimal.Decimal `json:"delivery_fee"`
	PaymentMethod string           `json:"payment_method"`
	OnCredit      bool             `json:"on_credit"`
	TotalValue    decimal.Decimal  `json:"total_value"`
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func (r SaleRequest) toInput() (SaleInput, error) {
	in := SaleInput{
		FlavorID:      r.FlavorID,
		Quantity:      r.Quantity,
		ClientName:    r.ClientName,
		ReceiverID:    r.ReceiverID,
		ReceiverName:  r.ReceiverName,
		Delivery:      r.Delivery,
		PaymentMethod: models.PaymentMethod(r.PaymentMethod),
		OnCredit:      r.OnCredit,
		TotalValue:    r.TotalValue,
	}
	if r.DeliveryFee != nil {
		in.DeliveryFee = decimal.NewNullDecimal(*r.DeliveryFee)
	}
	if r.SaleDate != "" {
		d, err := parseDate(r.SaleDate)
		if err != nil {
			return in, apperr.Validation("sale_date must be YYYY-MM-DD")
		}
		in.SaleDate = d
	}
	return in, nil
}

func parseSaleBody(c *fiber.Ctx) (SaleInput, error) {
	var body SaleRequest
	if err := c.BodyParser(&body); err != nil {
		return SaleInput{}, apperr.Validation("invalid request body")
	}
	return body.toInput()
}

func saleID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid sale id")
	}
	return uint(id), nil
}

func ParseFilter(c *fiber.Ctx) (Filter, error) {
	var f Filter
	var err error

	f.Receiver = strings.TrimSpace(c.Query("receiver"))
	if f.Delivery, err = ParseDeliveryFilter(c.Query("delivery")); err != nil {
		return f, err
	}
	if f.OnCredit, err = ParseCreditFilter(c.Query("on_credit")); err != nil {
		return f, err
	}
	if s := c.Query("date_from"); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, apperr.Validation("date_from must be YYYY-MM-DD")
		}
		f.DateFrom = &d
	}
	if s := c.Query("date_to"); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, apperr.Validation("date_to must be YYYY-MM-DD")
		}
		f.DateTo = &d
	}
	return f, nil
}

// POST /api/sales
func RegisterSaleHandler(svc SaleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseSaleBody(c)
		if err != nil {
			return err
		}
		view, err := svc.Register(c.UserContext(), auth.CurrentActor(c), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	}
}

// PUT /api/sales/:id
func EditSaleHandler(svc SaleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := saleID(c)
		if err != nil {
			return err
		}
		in, err := parseSaleBody(c)
		if err != nil {
			return err
		}
		view, err := svc.Edit(c.UserContext(), auth.CurrentActor(c), id, in)
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// DELETE /api/sales/:id
func DeleteSaleHandler(svc SaleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := saleID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), auth.CurrentActor(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/sales?receiver=&delivery=with|without&on_credit=yes|no&date_from=&date_to=
func ListSalesHandler(svc SaleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := ParseFilter(c)
		if err != nil {
			return err
		}
		res, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/sales/summary
func SummaryHandler(svc SaleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := ParseFilter(c)
		if err != nil {
			return err
		}
		res, err := svc.Summary(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/sales/export
func ExportHandler(svc SaleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := ParseFilter(c)
		if err != nil {
			return err
		}
		views, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		data, err := ExportXLSX(views)
		if err != nil {
			return apperr.Internal(err, "could not build spreadsheet")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="sales-%s.xlsx"`, time.Now().Format("20060102")))
		return c.Send(data)
	}
}
