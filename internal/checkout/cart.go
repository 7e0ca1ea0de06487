package checkout

import (
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// Cart is the transient, ordered set of lines for one checkout.
type Cart struct {
	items []domain.SaleItem
}

func (c *Cart) find(medicineID string) int {
	for i := range c.items {
		if c.items[i].MedicineID == medicineID {
			return i
		}
	}
	return -1
}

// Lines returns a copy of the cart lines in the order they were added.
func (c *Cart) Lines() []domain.SaleItem {
	return domain.CopyItems(c.items)
}

func (c *Cart) Len() int { return len(c.items) }

// Quantity returns the carted units for a medicine, zero when absent.
func (c *Cart) Quantity(medicineID string) int64 {
	if i := c.find(medicineID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

func (c *Cart) clear() {
	c.items = nil
}

// Checkout holds the optional fields collected alongside the cart.
type Checkout struct {
	CustomerName    string              `json:"customerName"`
	DiscountPercent decimal.Decimal     `json:"discountPercent"`
	CashReceived    decimal.NullDecimal `json:"cashReceived"`
}

// CartView is the live state shown at the terminal.
type CartView struct {
	Items    []domain.SaleItem `json:"items"`
	Checkout Checkout          `json:"checkout"`
	Totals   Totals            `json:"totals"`
}
