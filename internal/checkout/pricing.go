package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals is derived from cart state on every read and never cached.
type Totals struct {
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountPercent decimal.Decimal     `json:"discountPercent"`
	DiscountAmount  decimal.Decimal     `json:"discountAmount"`
	GrandTotal      decimal.Decimal     `json:"grandTotal"`
	CashReceived    decimal.NullDecimal `json:"cashReceived"`
	ChangeDue       decimal.Decimal     `json:"changeDue"`
}

// ComputeTotals prices items. Cash that was not entered leaves ChangeDue at zero.
func ComputeTotals(items []domain.SaleItem, discountPercent decimal.Decimal, cash decimal.NullDecimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	percent := ClampDiscount(discountPercent)
	discount := subtotal.Mul(percent).Shift(-2)
	grand := subtotal.Sub(discount)

	change := decimal.Zero
	if cash.Valid {
		change = cash.Decimal.Sub(grand)
	}

	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: percent,
		DiscountAmount:  discount,
		GrandTotal:      grand,
		CashReceived:    cash,
		ChangeDue:       change,
	}
}

// ClampDiscount keeps a discount percentage within [0, 100].
func ClampDiscount(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// ParseCash reads free-text cash input. Blank or non-numeric input is unset.
func ParseCash(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// BalanceDue reports whether the customer still owes money.
func (t Totals) BalanceDue() bool {
	return t.ChangeDue.IsNegative()
}

// ChangeLabel names ChangeDue for display; the sign only picks the label.
func (t Totals) ChangeLabel() string {
	if t.BalanceDue() {
		return "Balance Due"
	}
	return "Change"
}

// ChangeMagnitude is the absolute value shown next to ChangeLabel.
func (t Totals) ChangeMagnitude() decimal.Decimal {
	return t.ChangeDue.Abs()
}
