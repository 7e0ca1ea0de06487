package pos

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/inventory"
	"pharmapos/m/internal/store"
)

// Gateway is the persistence collaborator.
type Gateway interface {
	Load(ctx context.Context) (store.Snapshot, error)
	Save(ctx context.Context, snap store.Snapshot) error
}

// RetryConfig bounds how hard a commit retries a failing gateway.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
}

// DefaultRetryConfig retries three times starting at 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Timeout:      10 * time.Second,
	}
}

// Session owns the ledger, the transaction engine and the sale history for
// one terminal, and decides when state is persisted. Every method is safe to
// call from concurrent HTTP handlers; they are serialised internally.
type Session struct {
	mu            sync.Mutex
	ledger        *inventory.Ledger
	engine        *checkout.Engine
	history       *checkout.History
	gateway       Gateway
	authenticated bool

	retry       RetryConfig
	now         func() time.Time
	lastSaveErr error
}

type options struct {
	retry         RetryConfig
	now           func() time.Time
	ledgerOptions []inventory.Option
}

// Option configures a Session.
type Option func(*options)

// WithRetry overrides the commit retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// WithClock overrides time.Now for sales and reports.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLedgerOptions passes options through to the inventory ledger.
func WithLedgerOptions(opts ...inventory.Option) Option {
	return func(o *options) { o.ledgerOptions = append(o.ledgerOptions, opts...) }
}

// Open loads persisted state through gw and builds a session around it. A
// failed load is logged and the session starts empty; it never aborts.
func Open(ctx context.Context, gw Gateway, opts ...Option) *Session {
	o := options{retry: DefaultRetryConfig(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	snap, err := gw.Load(ctx)
	if err != nil {
		log.Printf("[pos] WARN: unable to load saved state, starting empty: %v", err)
		snap = store.Snapshot{}
	}

	ledger := inventory.NewLedger(snap.Inventory, o.ledgerOptions...)
	history := checkout.NewHistory(snap.Sales)
	engine := checkout.NewEngine(ledger, history, checkout.WithClock(o.now))

	log.Printf("[pos] session opened with %d medicines and %d sales", ledger.Len(), history.Len())
	return &Session{
		ledger:        ledger,
		engine:        engine,
		history:       history,
		gateway:       gw,
		authenticated: snap.Authenticated,
		retry:         o.retry,
		now:           o.now,
	}
}

// commit persists the current state. Callers hold s.mu. Failures are logged
// and remembered for StorageError; the in-memory state stands either way.
func (s *Session) commit(ctx context.Context) {
	snap := store.Snapshot{
		Inventory:     s.ledger.All(),
		Sales:         s.history.All(),
		Authenticated: s.authenticated,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.retry.Timeout)
	defer cancel()

	err := retry(ctx, s.retry, func() error { return s.gateway.Save(ctx, snap) })
	if err != nil {
		log.Printf("[pos] WARN: state not persisted, continuing in memory: %v", err)
	}
	s.lastSaveErr = err
}

func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)
	delay := cfg.InitialDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay = min(delay*2, cfg.MaxDelay)
	}
	return err
}

// StorageError returns the error from the most recent commit, or nil.
func (s *Session) StorageError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

// Medicines returns medicines matching term (all when empty) in insertion order.
func (s *Session) Medicines(term string) []domain.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(s.ledger.Search(term))
}

// Medicine returns a single medicine.
func (s *Session) Medicine(id string) (domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Get(id)
}

// InventoryCount is the number of medicines on file.
func (s *Session) InventoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Len()
}

// AddMedicine creates a medicine and commits.
func (s *Session) AddMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	if m.Quantity < 0 || m.Price.IsNegative() || m.LowStockThreshold < 0 {
		return domain.Medicine{}, domain.ErrInvalidMedicine
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.ledger.Add(m)
	s.commit(ctx)
	return created, nil
}

// ImportMedicines adds a batch of medicines with a single commit.
func (s *Session) ImportMedicines(ctx context.Context, meds []domain.Medicine) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meds {
		s.ledger.Add(m)
	}
	if len(meds) > 0 {
		s.commit(ctx)
	}
	return len(meds)
}

// UpdateMedicine merges patch into a medicine and commits.
func (s *Session) UpdateMedicine(ctx context.Context, id string, patch domain.MedicinePatch) (domain.Medicine, error) {
	if err := patch.Validate(); err != nil {
		return domain.Medicine{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := s.ledger.Update(id, patch)
	if err != nil {
		return domain.Medicine{}, err
	}
	s.commit(ctx)
	return updated, nil
}

// RemoveMedicine deletes a medicine and commits. Sales that sold it are untouched.
func (s *Session) RemoveMedicine(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Remove(id); err != nil {
		return err
	}
	s.commit(ctx)
	return nil
}

// LowStock lists medicines at or below their threshold.
func (s *Session) LowStock() []domain.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.LowStock()
}

// Expired lists medicines that expired before asOf.
func (s *Session) Expired(asOf domain.Date) []domain.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Expired(asOf)
}

// AddToCart adds one unit of a medicine to the cart.
func (s *Session) AddToCart(medicineID string) (checkout.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.AddToCart(medicineID); err != nil {
		return checkout.CartView{}, err
	}
	return s.engine.Cart(), nil
}

// UpdateCartQuantity shifts a cart line by delta.
func (s *Session) UpdateCartQuantity(medicineID string, delta int64) checkout.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.UpdateQuantity(medicineID, delta)
	return s.engine.Cart()
}

// RemoveFromCart drops a cart line.
func (s *Session) RemoveFromCart(medicineID string) checkout.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.RemoveFromCart(medicineID)
	return s.engine.Cart()
}

// CheckoutFields updates any of the optional checkout fields; nil leaves a field as is.
type CheckoutFields struct {
	CustomerName    *string
	DiscountPercent *decimal.Decimal
	CashReceived    *decimal.NullDecimal
}

// SetCheckout applies fields to the open checkout.
func (s *Session) SetCheckout(fields CheckoutFields) checkout.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fields.CustomerName != nil {
		s.engine.SetCustomerName(*fields.CustomerName)
	}
	if fields.DiscountPercent != nil {
		s.engine.SetDiscountPercent(*fields.DiscountPercent)
	}
	if fields.CashReceived != nil {
		s.engine.SetCashReceived(*fields.CashReceived)
	}
	return s.engine.Cart()
}

// Cart returns the live cart view.
func (s *Session) Cart() checkout.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Cart()
}

// AbandonCart clears the cart and checkout fields.
func (s *Session) AbandonCart() checkout.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Abandon()
	return s.engine.Cart()
}

// Checkout settles the cart and commits the new sale with its stock deltas.
// Nothing is persisted when settlement fails.
func (s *Session) Checkout(ctx context.Context, allowOversell bool) (checkout.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settlement, err := s.engine.ProcessSale(allowOversell)
	if err != nil {
		return checkout.Settlement{}, err
	}
	for _, w := range settlement.Warnings {
		log.Printf("[pos] WARN: sale %s settled with oversell: %v", settlement.Sale.ID, w)
	}
	s.commit(ctx)
	return settlement, nil
}

// Login records the authenticated flag.
func (s *Session) Login(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.commit(ctx)
}

// Logout clears the authenticated flag and abandons any open cart.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Abandon()
	s.authenticated = false
	s.commit(ctx)
}

// Authenticated reports the persisted login flag.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// AssistantSnapshot is the read-only view handed to the assistant gateway.
func (s *Session) AssistantSnapshot() domain.AssistantSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	meds := s.ledger.All()
	summaries := make([]domain.MedicineSummary, 0, len(meds))
	for _, m := range meds {
		summaries = append(summaries, domain.MedicineSummary{
			Name:     m.Name,
			Stock:    m.Quantity,
			Expiry:   m.ExpiryDate.String(),
			LowStock: m.IsLowStock(),
		})
	}
	return domain.AssistantSnapshot{Medicines: summaries, SalesCount: s.history.Len()}
}
