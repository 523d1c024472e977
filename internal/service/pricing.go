package service

import (
	"pharmacy-backend/internal/model"
	"pharmacy-backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// LineTotal is unit price × quantity. An unpriced line contributes zero.
// Tax rates are informational on the invoice and never added to the payable
// amount.
func LineTotal(line model.OrderLine) decimal.Decimal {
	if line.UnitPrice == nil {
		return decimal.Zero
	}
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// OrderTotal sums priced lines. It is recomputed on every read and before
// every settlement — the stored order never caches a total.
func OrderTotal(order model.PharmacyOrder) decimal.Decimal {
	total := decimal.Zero
	for _, line := range order.Lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// HasUnpricedPendingLine reports whether any pending line still lacks a
// confirmed price. An order in this condition can never settle.
func HasUnpricedPendingLine(order model.PharmacyOrder) bool {
	for _, line := range order.Lines {
		if line.Status == model.LineStatusPending && line.UnitPrice == nil {
			return true
		}
	}
	return false
}

// ValidatePrice rejects negative prices before any mutation happens.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.ErrInvalidPrice
	}
	return nil
}

// DeriveState recomputes the pre-payment state from line priced-ness.
// Settled orders are never touched.
func DeriveState(order model.PharmacyOrder) string {
	if order.PaymentState == model.PaymentStateSettled {
		return model.PaymentStateSettled
	}
	if HasUnpricedPendingLine(order) {
		return model.PaymentStateAwaitingPricing
	}
	return model.PaymentStateReadyForPayment
}
