// Package billing computes line and order totals through a pipeline of
// discount strategies and commits checkouts against the catalog.
package billing

import (
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/customers"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Engine resolves products and customers through their repositories and
// runs the strategy pipeline. An unknown product or customer is a
// not-found error, never a silent zero price.
type Engine struct {
	products   *catalog.Repository
	customers  *customers.Repository
	strategies []Strategy
}

// NewEngine builds an Engine with the default pipeline: bulk discount
// first, then the tier discount.
func NewEngine(products *catalog.Repository, roster *customers.Repository) *Engine {
	return &Engine{
		products:   products,
		customers:  roster,
		strategies: []Strategy{BulkDiscount{}, VIPDiscount{}},
	}
}

// Append adds a strategy to the end of the pipeline.
func (e *Engine) Append(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// PriceLine prices qty units of a product for a customer. customerID may
// be empty for guest sales.
func (e *Engine) PriceLine(productID string, qty int, customerID string) (float64, error) {
	if qty <= 0 {
		return 0, shared.NewValidationError("quantity", "must be positive")
	}
	product, err := e.products.FindByID(productID)
	if err != nil {
		return 0, err
	}
	customer, err := e.resolveCustomer(customerID)
	if err != nil {
		return 0, err
	}
	return e.price(product, qty, customer), nil
}

// PriceLineByName is PriceLine with a case-insensitive product name lookup.
func (e *Engine) PriceLineByName(productName string, qty int, customerID string) (float64, error) {
	if qty <= 0 {
		return 0, shared.NewValidationError("quantity", "must be positive")
	}
	product, err := e.products.FindByName(productName)
	if err != nil {
		return 0, err
	}
	customer, err := e.resolveCustomer(customerID)
	if err != nil {
		return 0, err
	}
	return e.price(product, qty, customer), nil
}

func (e *Engine) resolveCustomer(customerID string) (*customers.Customer, error) {
	if customerID == "" {
		return nil, nil
	}
	customer, err := e.customers.FindByID(customerID)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (e *Engine) price(product catalog.Product, qty int, customer *customers.Customer) float64 {
	total := 0.0
	for _, s := range e.strategies {
		total = s.Apply(total, product, qty, customer)
	}
	return total
}
