package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/customers"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// PricedLine is one checkout line with its derived amounts. Subtotal is
// the base unit price times quantity; Discount is everything the
// strategy pipeline took off it.
type PricedLine struct {
	Product  catalog.Product
	Quantity int
	Subtotal float64
	Discount float64
	Total    float64
}

// Bill is the outcome of a committed checkout.
type Bill struct {
	Ref      string
	IssuedAt time.Time
	Customer *customers.Customer
	Lines    []PricedLine
	Total    float64
	Path     string
}

// CheckoutService validates carts, commits stock decrements atomically
// and writes one receipt file per completed checkout.
type CheckoutService struct {
	products  *catalog.Repository
	customers *customers.Repository
	engine    *Engine
	store     *filestore.Store
	billsDir  string
	logger    *slog.Logger
	metrics   *observability.Metrics

	now    func() time.Time
	newRef func() string
}

// NewCheckoutService constructs a CheckoutService. metrics may be nil.
func NewCheckoutService(products *catalog.Repository, roster *customers.Repository, engine *Engine, store *filestore.Store, billsDir string, logger *slog.Logger, metrics *observability.Metrics) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		products:  products,
		customers: roster,
		engine:    engine,
		store:     store,
		billsDir:  billsDir,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		newRef:    uuid.NewString,
	}
}

// StageLine checks a requested quantity against the product's current
// stock, including what the cart already holds, and stages it. This is
// the add-time check; the authoritative check runs again at commit.
func (s *CheckoutService) StageLine(cart *Cart, productID string, qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}
	product, err := s.products.FindByID(productID)
	if err != nil {
		return err
	}
	staged := cart.Quantity(productID)
	if staged+qty > product.Stock {
		return &shared.StockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: staged + qty,
			Available: product.Stock,
		}
	}
	cart.Add(productID, qty)
	return nil
}

// Checkout prices every cart line, then atomically validates and
// decrements stock for all of them. If any line exceeds current stock
// the whole checkout is aborted with no write. On success a receipt file
// is written to the bills directory; a failed receipt write is logged
// but does not undo the committed stock mutation.
func (s *CheckoutService) Checkout(ctx context.Context, cart *Cart) (*Bill, error) {
	if cart.Empty() {
		return nil, shared.NewValidationError("cart", "must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(cart.CustomerID)
	if err != nil {
		return nil, err
	}

	lines := make([]PricedLine, 0, len(cart.Lines))
	decrements := make(map[string]int, len(cart.Lines))
	total := 0.0
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			return nil, shared.NewValidationError("quantity", "must be positive")
		}
		product, err := s.products.FindByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		lineTotal := s.engine.price(product, line.Quantity, customer)
		subtotal := product.UnitPrice * float64(line.Quantity)
		lines = append(lines, PricedLine{
			Product:  product,
			Quantity: line.Quantity,
			Subtotal: subtotal,
			Discount: subtotal - lineTotal,
			Total:    lineTotal,
		})
		decrements[line.ProductID] += line.Quantity
		total += lineTotal
	}

	if err := s.products.CommitStockDecrements(decrements); err != nil {
		s.metrics.RecordCheckout("rejected")
		return nil, err
	}

	bill := &Bill{
		Ref:      s.newRef(),
		IssuedAt: s.now(),
		Customer: customer,
		Lines:    lines,
		Total:    total,
	}
	path, err := s.writeBill(bill)
	if err != nil {
		// Stock is already committed; losing the receipt must not fail
		// the sale.
		s.logger.Error("write bill file", slog.Any("error", err))
	} else {
		bill.Path = path
	}
	s.metrics.RecordCheckout("committed")
	s.logger.Info("checkout committed",
		slog.String("ref", bill.Ref),
		slog.Int("lines", len(bill.Lines)),
		slog.Float64("total", bill.Total),
	)
	return bill, nil
}

func (s *CheckoutService) resolveCustomer(customerID string) (*customers.Customer, error) {
	if customerID == "" {
		return nil, nil
	}
	customer, err := s.customers.FindByID(customerID)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
