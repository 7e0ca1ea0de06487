package checkout

import (
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// Ledger is the slice of the inventory ledger the engine reads and settles against.
type Ledger interface {
	Get(id string) (domain.Medicine, error)
	Decrement(id string, amount int64) (domain.Medicine, *domain.OversellWarning, error)
}

// StockDelta is the inventory change applied for one settled line.
type StockDelta struct {
	MedicineID string `json:"medicineId"`
	Requested  int64  `json:"requested"`
	Applied    int64  `json:"applied"`
	Remaining  int64  `json:"remaining"`
}

// Settlement describes everything a committed sale changed.
type Settlement struct {
	Sale     domain.Sale              `json:"sale"`
	Receipt  domain.Receipt           `json:"receipt"`
	Deltas   []StockDelta             `json:"deltas"`
	Warnings []domain.OversellWarning `json:"warnings,omitempty"`
}

// Engine runs the sale lifecycle for a single terminal: cart assembly,
// pricing and settlement. Like the ledger it expects a single caller at a time.
type Engine struct {
	ledger   Ledger
	history  *History
	invoices *InvoiceSequence
	now      func() time.Time

	cart     Cart
	checkout Checkout
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides time.Now for timestamps and invoice ids.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine over ledger that appends to history.
func NewEngine(ledger Ledger, history *History, opts ...EngineOption) *Engine {
	if history == nil {
		history = NewHistory(nil)
	}
	e := &Engine{
		ledger:   ledger,
		history:  history,
		invoices: NewInvoiceSequence(history.sales),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History exposes the sale log the engine appends to.
func (e *Engine) History() *History { return e.history }

// AddToCart adds one unit of a medicine. A new line freezes the current name
// and price. Adding beyond the stock on hand is silently ignored.
func (e *Engine) AddToCart(medicineID string) error {
	med, err := e.ledger.Get(medicineID)
	if err != nil {
		return err
	}
	if i := e.cart.find(medicineID); i >= 0 {
		if e.cart.items[i].Quantity+1 <= med.Quantity {
			e.cart.items[i].Quantity++
		}
		return nil
	}
	if med.Quantity < 1 {
		return nil
	}
	e.cart.items = append(e.cart.items, domain.SaleItem{
		MedicineID:  med.ID,
		Name:        med.Name,
		Quantity:    1,
		PriceAtSale: med.Price,
	})
	return nil
}

// UpdateQuantity shifts a line by delta, capped at the ledger stock and never
// below one. Lines are only removed through RemoveFromCart. Unknown lines and
// medicines that have left the ledger are ignored.
func (e *Engine) UpdateQuantity(medicineID string, delta int64) {
	i := e.cart.find(medicineID)
	if i < 0 {
		return
	}
	med, err := e.ledger.Get(medicineID)
	if err != nil {
		return
	}
	qty := min(e.cart.items[i].Quantity+delta, med.Quantity)
	e.cart.items[i].Quantity = max(qty, 1)
}

// RemoveFromCart drops the line for a medicine regardless of its quantity.
func (e *Engine) RemoveFromCart(medicineID string) {
	if i := e.cart.find(medicineID); i >= 0 {
		e.cart.items = append(e.cart.items[:i], e.cart.items[i+1:]...)
	}
}

// SetCustomerName records the optional customer name.
func (e *Engine) SetCustomerName(name string) {
	e.checkout.CustomerName = name
}

// SetDiscountPercent records the discount, clamped to [0, 100].
func (e *Engine) SetDiscountPercent(p decimal.Decimal) {
	e.checkout.DiscountPercent = ClampDiscount(p)
}

// SetCashReceived records the cash tendered; an invalid value means unset.
func (e *Engine) SetCashReceived(cash decimal.NullDecimal) {
	e.checkout.CashReceived = cash
}

// Cart returns the current cart, checkout fields and derived totals.
func (e *Engine) Cart() CartView {
	return CartView{
		Items:    e.cart.Lines(),
		Checkout: e.checkout,
		Totals:   e.Totals(),
	}
}

// Totals prices the cart as it stands.
func (e *Engine) Totals() Totals {
	return ComputeTotals(e.cart.items, e.checkout.DiscountPercent, e.checkout.CashReceived)
}

// Abandon empties the cart and resets the checkout fields.
func (e *Engine) Abandon() {
	e.cart.clear()
	e.checkout = Checkout{}
}

// ProcessSale settles the cart.
//
// Every line is checked against live stock first. If any line exceeds it the
// sale is rejected with *domain.OversellError and nothing changes, unless
// allowOversell is set; then each line is decremented independently, clamped
// at zero, and the clamps come back as warnings on the settlement.
func (e *Engine) ProcessSale(allowOversell bool) (Settlement, error) {
	if e.cart.Len() == 0 {
		return Settlement{}, domain.ErrEmptyCart
	}
	totals := e.Totals()

	if !allowOversell {
		if shortfalls := e.shortfalls(); len(shortfalls) > 0 {
			return Settlement{}, &domain.OversellError{Warnings: shortfalls}
		}
	}

	var (
		deltas   = make([]StockDelta, 0, e.cart.Len())
		warnings []domain.OversellWarning
	)
	for _, line := range e.cart.items {
		med, warning, err := e.ledger.Decrement(line.MedicineID, line.Quantity)
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("[checkout] WARN: %s left the inventory before settlement; no stock deducted", line.MedicineID)
			warnings = append(warnings, domain.OversellWarning{
				MedicineID: line.MedicineID,
				Name:       line.Name,
				Requested:  line.Quantity,
			})
			deltas = append(deltas, StockDelta{MedicineID: line.MedicineID, Requested: line.Quantity})
			continue
		}
		if err != nil {
			return Settlement{}, err
		}
		applied := line.Quantity
		if warning != nil {
			warnings = append(warnings, *warning)
			applied = warning.Available
		}
		deltas = append(deltas, StockDelta{
			MedicineID: line.MedicineID,
			Requested:  line.Quantity,
			Applied:    applied,
			Remaining:  med.Quantity,
		})
	}

	now := e.now().UTC()
	sale := domain.Sale{
		ID:           e.invoices.Next(now),
		Timestamp:    now,
		Items:        e.cart.Lines(),
		TotalAmount:  totals.GrandTotal,
		CustomerName: domain.ResolveCustomerName(e.checkout.CustomerName),
		Discount:     totals.DiscountAmount,
		CashReceived: e.checkout.CashReceived,
	}
	e.history.append(sale)
	e.Abandon()

	return Settlement{
		Sale:     sale,
		Receipt:  domain.NewReceipt(sale, false),
		Deltas:   deltas,
		Warnings: warnings,
	}, nil
}

func (e *Engine) shortfalls() []domain.OversellWarning {
	var out []domain.OversellWarning
	for _, line := range e.cart.items {
		var available int64
		if med, err := e.ledger.Get(line.MedicineID); err == nil {
			available = med.Quantity
		}
		if line.Quantity > available {
			out = append(out, domain.OversellWarning{
				MedicineID: line.MedicineID,
				Name:       line.Name,
				Requested:  line.Quantity,
				Available:  available,
			})
		}
	}
	return out
}
