package billing

import (
	"path/filepath"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands in receipt amounts (1,250.00).
var printer = message.NewPrinter(language.English)

// writeBill renders the receipt and writes it as one timestamp-named
// text file in the bills directory.
func (s *CheckoutService) writeBill(b *Bill) (string, error) {
	name := "Bill_" + b.IssuedAt.Format("20060102_150405") + ".txt"
	path := filepath.Join(s.billsDir, name)
	if err := s.store.OverwriteAll(path, renderBill(b)); err != nil {
		return "", err
	}
	return path, nil
}

func renderBill(b *Bill) []string {
	lines := []string{
		"===== MERIDIAN POS BILL =====",
		"Date: " + b.IssuedAt.Format("2006-01-02 15:04:05"),
		"Ref:  " + b.Ref,
	}
	if b.Customer != nil {
		lines = append(lines, printer.Sprintf("Customer: %s (%s)", b.Customer.Name, b.Customer.Type))
	} else {
		lines = append(lines, "Customer: Guest")
	}
	lines = append(lines, "----------------------------")
	for _, line := range b.Lines {
		lines = append(lines, printer.Sprintf("%-20s x%d", line.Product.Name, line.Quantity))
		lines = append(lines, printer.Sprintf("  @ Rs. %.2f", line.Product.UnitPrice))
		if line.Discount > 0 {
			lines = append(lines, printer.Sprintf("  Discount: -Rs. %.2f", line.Discount))
		}
		lines = append(lines, printer.Sprintf("  Total:    Rs. %.2f", line.Total))
	}
	lines = append(lines,
		"----------------------------",
		printer.Sprintf("GRAND TOTAL: Rs. %.2f", b.Total),
		"============================",
		"Thank you for shopping!",
	)
	return lines
}
