package receipt

import (
	"fmt"
	"io"
	"strings"

	"pharmapos/m/domain"
)

const (
	titleOriginal = "CASH INVOICE"
	titleReprint  = "DUPLICATE INVOICE (REPRINT)"

	qtyWidth   = 5
	priceWidth = 10
)

// Render writes r as fixed-width thermal receipt text. Checkout receipts and
// reprints share this routine; only the title differs.
func Render(w io.Writer, r domain.Receipt, t Template) error {
	_, err := io.WriteString(w, String(r, t))
	return err
}

// String renders r to a string.
func String(r domain.Receipt, t Template) string {
	width := t.width()
	var b strings.Builder
	rule := strings.Repeat("-", width)

	for _, line := range []string{t.PharmacyName, t.Registration, t.Address, t.Phone} {
		for _, wrapped := range wrap(line, width) {
			b.WriteString(center(wrapped, width))
		}
	}
	b.WriteString(rule + "\n")
	title := titleOriginal
	if r.Reprint {
		title = titleReprint
	}
	b.WriteString(center(title, width))
	b.WriteString(rule + "\n")

	b.WriteString(pair("INV NO:", r.InvoiceID, width))
	b.WriteString(pair("DATE:", r.Timestamp.In(t.loc()).Format("02/01/2006 15:04"), width))
	b.WriteString(pair("CUSTOMER:", r.CustomerName, width))
	b.WriteString(rule + "\n")

	nameWidth := width - qtyWidth - priceWidth
	fmt.Fprintf(&b, "%-*s%*s%*s\n", nameWidth, "Item Description", qtyWidth, "Qty", priceWidth, "Price")
	for _, line := range r.Lines {
		fmt.Fprintf(&b, "%-*s%*d%*s\n", nameWidth, truncate(line.Name, nameWidth-1), qtyWidth, line.Quantity,
			priceWidth, line.LineTotal.StringFixed(2))
	}
	b.WriteString(rule + "\n")

	b.WriteString(pair("SUBTOTAL:", r.Subtotal.StringFixed(2), width))
	if r.Discount.IsPositive() {
		b.WriteString(pair("DISCOUNT:", "-"+r.Discount.StringFixed(2), width))
	}
	b.WriteString(pair("NET TOTAL:", strings.TrimSpace(t.Currency+" "+r.GrandTotal.StringFixed(2)), width))
	b.WriteString(pair("CASH PAID:", r.CashReceived.StringFixed(2), width))
	b.WriteString(pair("CHANGE:", r.Change.StringFixed(2), width))

	stars := strings.Repeat("*", width)
	b.WriteString(stars + "\n")
	for _, line := range t.Footer {
		for _, wrapped := range wrap(line, width) {
			b.WriteString(center(wrapped, width))
		}
	}
	b.WriteString(stars + "\n")
	return b.String()
}

func pair(label, value string, width int) string {
	gap := width - len(label) - len(value)
	if gap < 1 {
		value = truncate(value, width-len(label)-1)
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value + "\n"
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s + "\n"
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// wrap breaks s on spaces into lines no longer than width.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, truncate(current, width))
}
