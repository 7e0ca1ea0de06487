package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLine is one printed item row.
type ReceiptLine struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Receipt is the flat projection consumed by the receipt renderer, both at
// checkout and when reprinting from history.
type Receipt struct {
	InvoiceID    string          `json:"invoiceId"`
	Timestamp    time.Time       `json:"timestamp"`
	CustomerName string          `json:"customerName"`
	Lines        []ReceiptLine   `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	CashReceived decimal.Decimal `json:"cashReceived"`
	Change       decimal.Decimal `json:"change"`
	Reprint      bool            `json:"reprint"`
}

// NewReceipt projects a sale into a receipt. Cash left unset (or zero) is
// shown as exact change, and a shortfall is never printed as negative change.
func NewReceipt(s Sale, reprint bool) Receipt {
	lines := make([]ReceiptLine, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, ReceiptLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.PriceAtSale,
			LineTotal: item.LineTotal(),
		})
	}

	cash := ResolveCash(s.CashReceived, s.TotalAmount)
	change := cash.Sub(s.TotalAmount)
	if change.IsNegative() {
		change = decimal.Zero
	}

	return Receipt{
		InvoiceID:    s.ID,
		Timestamp:    s.Timestamp,
		CustomerName: s.Customer(),
		Lines:        lines,
		Subtotal:     s.Subtotal(),
		Discount:     s.Discount,
		GrandTotal:   s.TotalAmount,
		CashReceived: cash,
		Change:       change,
		Reprint:      reprint,
	}
}

// ResolveCash returns the entered cash, or total when nothing usable was entered.
func ResolveCash(cash decimal.NullDecimal, total decimal.Decimal) decimal.Decimal {
	if !cash.Valid || cash.Decimal.IsZero() {
		return total
	}
	return cash.Decimal
}
