package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals travel as plain JSON numbers, matching the stored format.
	decimal.MarshalJSONWithoutQuotes = true
}

// Medicine is a stock-keeping unit held by the inventory ledger.
type Medicine struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	BatchNumber       string          `json:"batchNumber"`
	ExpiryDate        Date            `json:"expiryDate"`
	Quantity          int64           `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold int64           `json:"lowStockThreshold"`
	Manufacturer      string          `json:"manufacturer"`
}

// IsLowStock reports whether the units on hand are at or below the threshold.
func (m Medicine) IsLowStock() bool {
	return m.Quantity <= m.LowStockThreshold
}

// IsExpired reports whether the medicine expired strictly before asOf.
// A medicine without an expiry date never expires.
func (m Medicine) IsExpired(asOf Date) bool {
	if m.ExpiryDate.IsZero() {
		return false
	}
	return m.ExpiryDate.Before(asOf)
}

// StockValue is price * quantity.
func (m Medicine) StockValue() decimal.Decimal {
	return m.Price.Mul(decimal.NewFromInt(m.Quantity))
}

// MedicinePatch carries a partial update; nil fields are left unchanged.
type MedicinePatch struct {
	Name              *string
	Category          *string
	BatchNumber       *string
	ExpiryDate        *Date
	Quantity          *int64
	Price             *decimal.Decimal
	LowStockThreshold *int64
	Manufacturer      *string
}

// Apply merges the non-nil fields of p into m.
func (p MedicinePatch) Apply(m *Medicine) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.BatchNumber != nil {
		m.BatchNumber = *p.BatchNumber
	}
	if p.ExpiryDate != nil {
		m.ExpiryDate = *p.ExpiryDate
	}
	if p.Quantity != nil {
		m.Quantity = *p.Quantity
	}
	if p.Price != nil {
		m.Price = *p.Price
	}
	if p.LowStockThreshold != nil {
		m.LowStockThreshold = *p.LowStockThreshold
	}
	if p.Manufacturer != nil {
		m.Manufacturer = *p.Manufacturer
	}
}

// Validate rejects negative stock, price or threshold values.
func (p MedicinePatch) Validate() error {
	if p.Quantity != nil && *p.Quantity < 0 {
		return ErrInvalidMedicine
	}
	if p.Price != nil && p.Price.IsNegative() {
		return ErrInvalidMedicine
	}
	if p.LowStockThreshold != nil && *p.LowStockThreshold < 0 {
		return ErrInvalidMedicine
	}
	return nil
}
