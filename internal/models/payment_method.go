package models

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentPix      PaymentMethod = "PIX"
	PaymentCash     PaymentMethod = "CASH"
	PaymentCredit   PaymentMethod = "CREDIT"
	PaymentDebit    PaymentMethod = "DEBIT"
	PaymentOnCredit PaymentMethod = "ON_CREDIT"
)

var paymentAliases = map[string]PaymentMethod{
	"PIX":       PaymentPix,
	"CASH":      PaymentCash,
	"DINHEIRO":  PaymentCash,
	"CREDIT":    PaymentCredit,
	"CREDITO":   PaymentCredit,
	"CRÉDITO":   PaymentCredit,
	"DEBIT":     PaymentDebit,
	"DEBITO":    PaymentDebit,
	"DÉBITO":    PaymentDebit,
	"ON_CREDIT": PaymentOnCredit,
	"FIADO":     PaymentOnCredit,
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if pm, ok := paymentAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return pm, nil
	}
	return "", fmt.Errorf("invalid payment method %q", s)
}

// Label is the customer-facing name used in order messages.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentPix:
		return "PIX"
	case PaymentCash:
		return "Dinheiro"
	case PaymentCredit:
		return "Cartão de crédito"
	case PaymentDebit:
		return "Cartão de débito"
	case PaymentOnCredit:
		return "Fiado"
	}
	return string(p)
}
