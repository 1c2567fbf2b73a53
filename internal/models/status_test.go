package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   any
		want Status
	}{
		{"ACTIVE", StatusActive},
		{"ativo", StatusActive},
		{" DESATIVADO ", StatusDisabled},
		{"disabled", StatusDisabled},
		{true, StatusActive},
		{false, StatusDisabled},
		{float64(1), StatusActive},
		{float64(0), StatusDisabled},
		{map[string]any{"status": "ATIVO"}, StatusActive},
		{[]byte("DISABLED"), StatusDisabled},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if err != nil {
			t.Errorf("ParseStatus(%v): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStatus(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}

	for _, bad := range []any{"maybe", float64(2), nil, map[string]any{"other": 1}} {
		if _, err := ParseStatus(bad); err == nil {
			t.Errorf("ParseStatus(%v) should fail", bad)
		}
	}
}

func TestStatusJSON(t *testing.T) {
	var body struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"DESATIVADO"}`), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != StatusDisabled {
		t.Fatalf("status = %s", body.Status)
	}
	out, _ := json.Marshal(body)
	if string(out) != `{"status":"DISABLED"}` {
		t.Fatalf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"status":"sometimes"}`), &body); err == nil {
		t.Fatal("expected error")
	}
}

func TestStatusValueRejectsEmpty(t *testing.T) {
	if _, err := Status("").Value(); err == nil {
		t.Fatal("empty status must not be written")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	for in, want := range map[string]PaymentMethod{
		"pix": PaymentPix, "Dinheiro": PaymentCash, "fiado": PaymentOnCredit, "DEBIT": PaymentDebit,
	} {
		got, err := ParsePaymentMethod(in)
		if err != nil || got != want {
			t.Errorf("ParsePaymentMethod(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParsePaymentMethod("boleto"); err == nil {
		t.Error("expected error")
	}
}

func TestEffectivePriceAndDelivery(t *testing.T) {
	p := Product{OriginalPrice: decimal.NewFromInt(50)}
	if !p.EffectivePrice().Equal(decimal.NewFromInt(50)) {
		t.Fatal("original price expected")
	}
	p.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(40))
	if !p.EffectivePrice().Equal(decimal.NewFromInt(40)) {
		t.Fatal("discount price expected")
	}

	s := Sale{}
	if s.HasDelivery() {
		t.Fatal("null fee is not a delivery")
	}
	s.DeliveryFee = decimal.NewNullDecimal(decimal.Zero)
	if s.HasDelivery() {
		t.Fatal("zero fee is not a delivery")
	}
	s.DeliveryFee = decimal.NewNullDecimal(decimal.NewFromInt(5))
	if !s.HasDelivery() {
		t.Fatal("positive fee is a delivery")
	}
}
