package billing

import (
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/customers"
)

// Strategy transforms a running line total. Strategies are applied in a
// fixed pipeline order and must not depend on each other, so new ones
// (seasonal promotions and the like) can be appended without touching
// existing ones. customer is nil for guest sales.
type Strategy interface {
	Apply(total float64, product catalog.Product, qty int, customer *customers.Customer) float64
}

// BulkDiscount establishes the base amount for a line: the lowest
// discounted unit price among all rule thresholds at or below the
// purchased quantity, times the quantity. It ignores the incoming total
// because it runs first in the pipeline.
type BulkDiscount struct{}

func (BulkDiscount) Apply(_ float64, product catalog.Product, qty int, _ *customers.Customer) float64 {
	return product.UnitPriceFor(qty) * float64(qty)
}

// fallbackVIPRate applies to VIP customers whose record carries no
// positive rate of its own.
const fallbackVIPRate = 0.05

// VIPDiscount applies the customer's tier rate on top of the running
// total. Non-VIP customers and guest sales pass through unchanged.
type VIPDiscount struct{}

func (VIPDiscount) Apply(total float64, _ catalog.Product, _ int, customer *customers.Customer) float64 {
	if customer == nil || customer.Type != customers.TypeVIP {
		return total
	}
	rate := customer.BaseDiscountRate()
	if rate <= 0 {
		rate = fallbackVIPRate
	}
	return total * (1 - rate)
}
