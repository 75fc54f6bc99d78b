package customers

import (
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Header is the first line of a freshly created customers file.
const Header = "customer_id,customer_name,customer_type,phone"

// EncodeLine serialises one customer as a store line. An absent phone is
// an empty trailing field. The phone is written raw so leading "+" country
// prefixes survive round-trips.
func EncodeLine(c Customer) string {
	return fmt.Sprintf("%s,%s,%s,%s",
		sanitizeField(c.ID),
		sanitizeField(c.Name),
		c.Type,
		c.Phone,
	)
}

// DecodeLine parses one store line into a customer.
func DecodeLine(line string) (Customer, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return Customer{}, shared.NewValidationError("customer line", fmt.Sprintf("expected at least 3 columns, got %d", len(fields)))
	}
	c := Customer{
		ID:   strings.TrimSpace(fields[0]),
		Name: strings.TrimSpace(fields[1]),
		Type: ParseType(fields[2]),
	}
	if len(fields) >= 4 {
		c.Phone = strings.TrimSpace(fields[3])
	}
	return c, nil
}

func sanitizeField(field string) string {
	if strings.HasPrefix(field, "=") || strings.HasPrefix(field, "+") ||
		strings.HasPrefix(field, "-") || strings.HasPrefix(field, "@") {
		return "'" + field
	}
	return field
}
