package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WalkInCustomer is the customer label used when none was entered.
const WalkInCustomer = "Walk-in Customer"

// SaleItem is a cart or sale line. Name and PriceAtSale are snapshots taken
// when the line entered the cart and never follow later medicine edits.
type SaleItem struct {
	MedicineID  string          `json:"medicineId"`
	Name        string          `json:"name"`
	Quantity    int64           `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"priceAtSale"`
}

// LineTotal is quantity * priceAtSale.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(i.Quantity))
}

// Sale is a settled transaction. It is never mutated after creation.
type Sale struct {
	ID           string              `json:"id"`
	Timestamp    time.Time           `json:"timestamp"`
	Items        []SaleItem          `json:"items"`
	TotalAmount  decimal.Decimal     `json:"totalAmount"`
	CustomerName string              `json:"customerName,omitempty"`
	Discount     decimal.Decimal     `json:"discount"`
	CashReceived decimal.NullDecimal `json:"cashReceived"`
}

// Subtotal sums the frozen line totals. It is not the sale total, which is
// net of discount and stored separately.
func (s Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Customer returns the customer name, or the walk-in label when blank.
func (s Sale) Customer() string {
	return ResolveCustomerName(s.CustomerName)
}

// ResolveCustomerName trims name and falls back to WalkInCustomer.
func ResolveCustomerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return WalkInCustomer
	}
	return name
}

// CopyItems returns a deep copy of items.
func CopyItems(items []SaleItem) []SaleItem {
	if items == nil {
		return nil
	}
	out := make([]SaleItem, len(items))
	copy(out, items)
	return out
}
