package service

import (
	"testing"

	"pharmacy-backend/internal/model"
)

func TestLineTotal(t *testing.T) {
	line := model.OrderLine{Quantity: 3, UnitPrice: decPtr("12.50")}
	if got := LineTotal(line); !got.Equal(dec("37.50")) {
		t.Errorf("LineTotal = %s, want 37.50", got)
	}

	unpriced := model.OrderLine{Quantity: 5}
	if got := LineTotal(unpriced); !got.IsZero() {
		t.Errorf("LineTotal for unpriced line = %s, want 0", got)
	}
}

func TestOrderTotalIgnoresTaxRates(t *testing.T) {
	order := model.PharmacyOrder{
		Lines: []model.OrderLine{
			{Quantity: 2, UnitPrice: decPtr("10"), CGSTRate: dec("9"), GSTRate: dec("18")},
			{Quantity: 1, UnitPrice: decPtr("45"), CGSTRate: dec("9"), GSTRate: dec("18")},
		},
	}
	// Tax rates are informational; the payable total is price x quantity only.
	if got := OrderTotal(order); !got.Equal(dec("65")) {
		t.Errorf("OrderTotal = %s, want 65", got)
	}
}

func TestOrderTotalSkipsUnpricedLines(t *testing.T) {
	order := model.PharmacyOrder{
		Lines: []model.OrderLine{
			{Quantity: 2, UnitPrice: decPtr("10")},
			{Quantity: 4}, // not priced yet
		},
	}
	if got := OrderTotal(order); !got.Equal(dec("20")) {
		t.Errorf("OrderTotal = %s, want 20", got)
	}
}

func TestValidatePrice(t *testing.T) {
	if err := ValidatePrice(dec("0")); err != nil {
		t.Errorf("zero price should be valid, got %v", err)
	}
	if err := ValidatePrice(dec("99.99")); err != nil {
		t.Errorf("positive price should be valid, got %v", err)
	}
	if err := ValidatePrice(dec("-1")); err == nil {
		t.Error("negative price should be rejected")
	}
}

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name  string
		order model.PharmacyOrder
		want  string
	}{
		{
			name: "unpriced pending line keeps order awaiting pricing",
			order: model.PharmacyOrder{
				PaymentState: model.PaymentStateAwaitingPricing,
				Lines: []model.OrderLine{
					{Quantity: 1, UnitPrice: decPtr("10"), Status: model.LineStatusPending},
					{Quantity: 1, Status: model.LineStatusPending},
				},
			},
			want: model.PaymentStateAwaitingPricing,
		},
		{
			name: "all lines priced means ready for payment",
			order: model.PharmacyOrder{
				PaymentState: model.PaymentStateAwaitingPricing,
				Lines: []model.OrderLine{
					{Quantity: 1, UnitPrice: decPtr("10"), Status: model.LineStatusPending},
				},
			},
			want: model.PaymentStateReadyForPayment,
		},
		{
			name: "settled is terminal",
			order: model.PharmacyOrder{
				PaymentState: model.PaymentStateSettled,
				Lines: []model.OrderLine{
					{Quantity: 1, Status: model.LineStatusPending},
				},
			},
			want: model.PaymentStateSettled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveState(tt.order); got != tt.want {
				t.Errorf("DeriveState = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOrderTotalDecimalPrecision(t *testing.T) {
	order := model.PharmacyOrder{
		Lines: []model.OrderLine{
			{Quantity: 3, UnitPrice: decPtr("0.10")},
		},
	}
	if got := OrderTotal(order); !got.Equal(dec("0.30")) {
		t.Errorf("OrderTotal = %s, want 0.30", got)
	}
}
