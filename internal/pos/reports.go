package pos

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// Sales returns sales whose invoice id or customer name contains term,
// ignoring case, newest first.
func (s *Session) Sales(term string) []domain.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(term))
	all := s.history.All()
	out := make([]domain.Sale, 0, len(all))
	for _, sale := range slices.Backward(all) {
		if needle == "" ||
			strings.Contains(strings.ToLower(sale.ID), needle) ||
			strings.Contains(strings.ToLower(sale.CustomerName), needle) {
			out = append(out, sale)
		}
	}
	return out
}

// Sale returns one committed sale.
func (s *Session) Sale(id string) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Find(id)
}

// Reprint projects a committed sale into a receipt marked as a reprint.
func (s *Session) Reprint(id string) (domain.Receipt, error) {
	sale, err := s.Sale(id)
	if err != nil {
		return domain.Receipt{}, err
	}
	return domain.NewReceipt(sale, true), nil
}

// SalesStats summarises the whole sale history.
type SalesStats struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	InvoiceCount      int             `json:"invoiceCount"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// Stats returns revenue, invoice count and average order value.
func (s *Session) Stats() SalesStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	sales := s.history.All()
	for _, sale := range sales {
		total = total.Add(sale.TotalAmount)
	}
	avg := decimal.Zero
	if len(sales) > 0 {
		avg = total.Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
	}
	return SalesStats{TotalRevenue: total, InvoiceCount: len(sales), AverageOrderValue: avg}
}

// DailyTotal is one point of the sales trend.
type DailyTotal struct {
	Date   string          `json:"date"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CategoryCount is the number of medicines in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Dashboard is the operational overview.
type Dashboard struct {
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	MedicineCount   int             `json:"medicineCount"`
	LowStockCount   int             `json:"lowStockCount"`
	ExpiredCount    int             `json:"expiredCount"`
	TodaySales      decimal.Decimal `json:"todaySales"`
	LastSevenDays   []DailyTotal    `json:"lastSevenDays"`
	Categories      []CategoryCount `json:"categories"`
}

// Dashboard computes the overview as of the session clock. Sales are bucketed
// by their UTC calendar date.
func (s *Session) Dashboard() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := domain.DateOf(s.now().UTC())
	meds := s.ledger.All()

	d := Dashboard{TotalStockValue: decimal.Zero, TodaySales: decimal.Zero, MedicineCount: len(meds)}
	categories := map[string]int{}
	var order []string
	for _, m := range meds {
		d.TotalStockValue = d.TotalStockValue.Add(m.StockValue())
		if m.IsLowStock() {
			d.LowStockCount++
		}
		if m.IsExpired(today) {
			d.ExpiredCount++
		}
		if _, seen := categories[m.Category]; !seen {
			order = append(order, m.Category)
		}
		categories[m.Category]++
	}
	for _, c := range order {
		d.Categories = append(d.Categories, CategoryCount{Category: c, Count: categories[c]})
	}

	byDay := map[string]decimal.Decimal{}
	for _, sale := range s.history.All() {
		key := domain.DateOf(sale.Timestamp.UTC()).String()
		byDay[key] = byDay[key].Add(sale.TotalAmount)
	}
	d.TodaySales = byDay[today.String()]
	for i := 6; i >= 0; i-- {
		day := today.AddDays(-i)
		d.LastSevenDays = append(d.LastSevenDays, DailyTotal{
			Date:   day.String(),
			Label:  day.Time().Format("01/02"),
			Amount: byDay[day.String()],
		})
	}
	return d
}

// ExportSalesCSV writes the sale history as CSV in commit order.
func (s *Session) ExportSalesCSV(w io.Writer) error {
	s.mu.Lock()
	sales := s.history.All()
	s.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"invoice_id", "timestamp", "customer", "items", "total_amount"}); err != nil {
		return err
	}
	for _, sale := range sales {
		var items []string
		for _, item := range sale.Items {
			items = append(items, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
		}
		record := []string{
			sale.ID,
			sale.Timestamp.UTC().Format(time.RFC3339),
			sale.Customer(),
			strings.Join(items, "; "),
			sale.TotalAmount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
