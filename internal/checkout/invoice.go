package checkout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pharmapos/m/domain"
)

const invoicePrefix = "INV-"

// InvoiceSequence issues invoice ids from the millisecond clock, bumped so
// that every id is strictly greater than the last one issued.
type InvoiceSequence struct {
	last int64
}

// NewInvoiceSequence resumes after the highest numeric id in history.
func NewInvoiceSequence(history []domain.Sale) *InvoiceSequence {
	seq := &InvoiceSequence{}
	for _, s := range history {
		n, err := strconv.ParseInt(strings.TrimPrefix(s.ID, invoicePrefix), 10, 64)
		if err == nil && n > seq.last {
			seq.last = n
		}
	}
	return seq
}

// Next returns a fresh invoice id for a sale created at now.
func (s *InvoiceSequence) Next(now time.Time) string {
	n := now.UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return fmt.Sprintf("%s%d", invoicePrefix, n)
}
