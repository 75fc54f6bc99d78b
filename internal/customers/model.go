package customers

import "strings"

// Type is a customer's pricing tier.
type Type string

const (
	TypeRegular Type = "REGULAR"
	TypeVIP     Type = "VIP"
)

// baseDiscountRates is the capability table keyed by tier. Changing a
// customer's type swaps its pricing behaviour without any other state.
var baseDiscountRates = map[Type]float64{
	TypeRegular: 0.0,
	TypeVIP:     0.05,
}

// ParseType maps a stored type string to a tier. Anything that is not
// VIP is treated as REGULAR, matching the legacy store's tolerance.
func ParseType(s string) Type {
	if strings.EqualFold(strings.TrimSpace(s), string(TypeVIP)) {
		return TypeVIP
	}
	return TypeRegular
}

// Customer is one roster entry. Phone is optional but format-checked
// when present.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Type  Type   `json:"type" validate:"required,oneof=REGULAR VIP"`
	Phone string `json:"phone,omitempty" validate:"omitempty,phoneformat"`
}

// BaseDiscountRate returns the flat discount rate for the customer's tier.
func (c Customer) BaseDiscountRate() float64 {
	return baseDiscountRates[c.Type]
}

// FinalPrice applies the tier discount to a subtotal. Regular customers
// pay the subtotal unchanged.
func (c Customer) FinalPrice(subtotal float64) float64 {
	return subtotal * (1 - c.BaseDiscountRate())
}
