package inventory

import (
	"fmt"
	"iter"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"pharmapos/m/domain"
)

// Ledger owns the live medicine collection. It is not safe for concurrent
// use; pos.Session serialises access.
type Ledger struct {
	medicines []domain.Medicine
	newID     func() string
	newBatch  func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithIDGenerator overrides the uuid-based id source.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithBatchGenerator overrides the generated batch numbers.
func WithBatchGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newBatch = fn }
}

// NewLedger constructs a Ledger holding a copy of initial.
func NewLedger(initial []domain.Medicine, opts ...Option) *Ledger {
	l := &Ledger{
		medicines: append([]domain.Medicine(nil), initial...),
		newID:     uuid.NewString,
		newBatch:  randomBatchNumber,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func randomBatchNumber() string {
	return fmt.Sprintf("BAT-%d", rand.IntN(900)+100)
}

// Add stores m under a fresh id, generating a batch number when none is set.
func (l *Ledger) Add(m domain.Medicine) domain.Medicine {
	m.ID = l.newID()
	for l.index(m.ID) >= 0 {
		m.ID = l.newID()
	}
	if strings.TrimSpace(m.BatchNumber) == "" {
		m.BatchNumber = l.newBatch()
	}
	l.medicines = append(l.medicines, m)
	return m
}

// Get returns the medicine with the given id.
func (l *Ledger) Get(id string) (domain.Medicine, error) {
	i := l.index(id)
	if i < 0 {
		return domain.Medicine{}, domain.MedicineNotFound(id)
	}
	return l.medicines[i], nil
}

// Update merges patch into the medicine with the given id. The id itself cannot change.
func (l *Ledger) Update(id string, patch domain.MedicinePatch) (domain.Medicine, error) {
	i := l.index(id)
	if i < 0 {
		return domain.Medicine{}, domain.MedicineNotFound(id)
	}
	patch.Apply(&l.medicines[i])
	return l.medicines[i], nil
}

// Remove deletes the medicine. Past sales keep their own item snapshots.
func (l *Ledger) Remove(id string) error {
	i := l.index(id)
	if i < 0 {
		return domain.MedicineNotFound(id)
	}
	l.medicines = append(l.medicines[:i], l.medicines[i+1:]...)
	return nil
}

// Decrement reduces stock by amount, clamped at zero. When the clamp fires the
// returned warning describes the oversell; the decrement is still applied.
func (l *Ledger) Decrement(id string, amount int64) (domain.Medicine, *domain.OversellWarning, error) {
	i := l.index(id)
	if i < 0 {
		return domain.Medicine{}, nil, domain.MedicineNotFound(id)
	}
	if amount < 0 {
		amount = 0
	}
	m := &l.medicines[i]

	var warning *domain.OversellWarning
	if amount > m.Quantity {
		warning = &domain.OversellWarning{
			MedicineID: m.ID,
			Name:       m.Name,
			Requested:  amount,
			Available:  m.Quantity,
		}
		log.Printf("[inventory] WARN: %v; clamping stock at zero", warning)
		m.Quantity = 0
	} else {
		m.Quantity -= amount
	}
	return *m, warning, nil
}

// LowStock returns medicines whose quantity is at or below their threshold.
func (l *Ledger) LowStock() []domain.Medicine {
	return l.filter(domain.Medicine.IsLowStock)
}

// Expired returns medicines whose expiry date is before asOf.
func (l *Ledger) Expired(asOf domain.Date) []domain.Medicine {
	return l.filter(func(m domain.Medicine) bool { return m.IsExpired(asOf) })
}

// Search yields medicines whose name or category contains term, ignoring case,
// in insertion order. An empty term matches everything. The sequence reads the
// ledger when ranged over, so each range starts fresh.
func (l *Ledger) Search(term string) iter.Seq[domain.Medicine] {
	needle := strings.ToLower(strings.TrimSpace(term))
	return func(yield func(domain.Medicine) bool) {
		for _, m := range l.medicines {
			if needle != "" &&
				!strings.Contains(strings.ToLower(m.Name), needle) &&
				!strings.Contains(strings.ToLower(m.Category), needle) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// All returns a copy of every medicine in insertion order.
func (l *Ledger) All() []domain.Medicine {
	return append([]domain.Medicine(nil), l.medicines...)
}

func (l *Ledger) Len() int { return len(l.medicines) }

func (l *Ledger) index(id string) int {
	for i := range l.medicines {
		if l.medicines[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) filter(keep func(domain.Medicine) bool) []domain.Medicine {
	var out []domain.Medicine
	for _, m := range l.medicines {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
