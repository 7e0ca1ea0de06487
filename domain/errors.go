package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is wrapped by lookups of medicines, cart lines and sales that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned when settlement is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidMedicine flags negative quantity, price or threshold values.
	ErrInvalidMedicine = errors.New("quantity, price and low stock threshold must not be negative")
)

// MedicineNotFound wraps ErrNotFound for a medicine id.
func MedicineNotFound(id string) error {
	return fmt.Errorf("medicine %s: %w", id, ErrNotFound)
}

// SaleNotFound wraps ErrNotFound for an invoice id.
func SaleNotFound(id string) error {
	return fmt.Errorf("sale %s: %w", id, ErrNotFound)
}

// OversellWarning records a deduction that exceeded the stock on hand.
// It is advisory: the ledger clamps at zero and keeps going.
type OversellWarning struct {
	MedicineID string `json:"medicineId"`
	Name       string `json:"name"`
	Requested  int64  `json:"requested"`
	Available  int64  `json:"available"`
}

// Shortfall is how many requested units were not in stock.
func (w OversellWarning) Shortfall() int64 {
	return w.Requested - w.Available
}

func (w OversellWarning) Error() string {
	return fmt.Sprintf("oversell on %s (%s): requested %d, available %d", w.Name, w.MedicineID, w.Requested, w.Available)
}

// OversellError rejects a settlement whose lines exceed live stock.
type OversellError struct {
	Warnings []OversellWarning
}

func (e *OversellError) Error() string {
	parts := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		parts = append(parts, w.Error())
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// GatewayError reports a failed persistence or assistant call. The session
// keeps running in memory when it sees one.
type GatewayError struct {
	Gateway string
	Op      string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway %s: %v", e.Gateway, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
