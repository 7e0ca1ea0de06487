package checkout

import (
	"pharmapos/m/domain"
)

// History is the append-only sale log, ordered by commit.
type History struct {
	sales []domain.Sale
}

// NewHistory starts from previously committed sales.
func NewHistory(sales []domain.Sale) *History {
	return &History{sales: append([]domain.Sale(nil), sales...)}
}

func (h *History) append(s domain.Sale) {
	s.Items = domain.CopyItems(s.Items)
	h.sales = append(h.sales, s)
}

// Find returns the sale with the given invoice id.
func (h *History) Find(id string) (domain.Sale, error) {
	for _, s := range h.sales {
		if s.ID == id {
			s.Items = domain.CopyItems(s.Items)
			return s, nil
		}
	}
	return domain.Sale{}, domain.SaleNotFound(id)
}

// All returns the sales in commit order. Item slices are copied so callers
// cannot reach committed records.
func (h *History) All() []domain.Sale {
	out := make([]domain.Sale, len(h.sales))
	for i, s := range h.sales {
		s.Items = domain.CopyItems(s.Items)
		out[i] = s
	}
	return out
}

func (h *History) Len() int { return len(h.sales) }
