package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Header is the first line of a freshly created products file.
const Header = "product_id,product_name,real_price,discounts,quantity"

// EncodeLine serialises one product as a store line. The discounts field
// is always quoted and carries no trailing separator; rule thresholds are
// emitted in ascending order so rewrites are byte-stable.
func EncodeLine(p Product) string {
	return fmt.Sprintf("%s,%s,%s,%q,%d",
		sanitizeField(p.ID),
		sanitizeField(p.Name),
		formatPrice(p.UnitPrice),
		encodeDiscountRules(p.DiscountRules),
		p.Stock,
	)
}

// DecodeLine parses one store line into a product. Malformed discount
// rule fragments are skipped with a warning; a malformed line as a whole
// yields an error so the loader can skip it.
func DecodeLine(line string, logger *slog.Logger) (Product, error) {
	fields := splitFields(line)
	if len(fields) < 4 {
		return Product{}, shared.NewValidationError("product line", fmt.Sprintf("expected at least 4 columns, got %d", len(fields)))
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return Product{}, shared.NewValidationError("real_price", fmt.Sprintf("not a number: %q", fields[2]))
	}
	p := Product{
		ID:            strings.TrimSpace(fields[0]),
		Name:          strings.TrimSpace(fields[1]),
		UnitPrice:     price,
		DiscountRules: parseDiscountRules(unquote(strings.TrimSpace(fields[3])), logger),
	}
	if len(fields) >= 5 {
		stock, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			return Product{}, shared.NewValidationError("quantity", fmt.Sprintf("not an integer: %q", fields[4]))
		}
		p.Stock = stock
	}
	return p, nil
}

// parseDiscountRules splits a "qty:price;qty:price" field. Fragments that
// do not parse, or that carry a non-positive threshold or negative price,
// are dropped with a warning rather than failing the whole line.
func parseDiscountRules(s string, logger *slog.Logger) map[int]float64 {
	rules := make(map[int]float64)
	if strings.TrimSpace(s) == "" {
		return rules
	}
	for _, fragment := range strings.Split(s, ";") {
		parts := strings.Split(fragment, ":")
		if len(parts) != 2 {
			warn(logger, fragment, "expected qty:price")
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			warn(logger, fragment, "threshold is not an integer")
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			warn(logger, fragment, "price is not a number")
			continue
		}
		if qty <= 0 {
			warn(logger, fragment, "threshold must be positive")
			continue
		}
		if price < 0 {
			warn(logger, fragment, "price must not be negative")
			continue
		}
		rules[qty] = price
	}
	return rules
}

func encodeDiscountRules(rules map[int]float64) string {
	if len(rules) == 0 {
		return ""
	}
	thresholds := make([]int, 0, len(rules))
	for qty := range rules {
		thresholds = append(thresholds, qty)
	}
	sort.Ints(thresholds)
	parts := make([]string, 0, len(thresholds))
	for _, qty := range thresholds {
		parts = append(parts, fmt.Sprintf("%d:%s", qty, formatPrice(rules[qty])))
	}
	return strings.Join(parts, ";")
}

func warn(logger *slog.Logger, fragment, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("skipping discount rule fragment", slog.String("fragment", fragment), slog.String("reason", reason))
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// splitFields splits a line on commas outside double quotes.
func splitFields(line string) []string {
	var fields []string
	var sb strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			sb.WriteRune(r)
		case r == ',' && !inQuotes:
			fields = append(fields, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	fields = append(fields, sb.String())
	return fields
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// sanitizeField defuses spreadsheet formula injection by prefixing fields
// that start with =, +, - or @ with a single quote.
func sanitizeField(field string) string {
	if strings.HasPrefix(field, "=") || strings.HasPrefix(field, "+") ||
		strings.HasPrefix(field, "-") || strings.HasPrefix(field, "@") {
		return "'" + field
	}
	return field
}
