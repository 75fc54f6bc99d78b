package billing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

func newCheckoutService(t *testing.T) (*CheckoutService, string) {
	t.Helper()
	products, roster, store, dir := newFixtures(t)
	billsDir := filepath.Join(dir, "bills")
	svc := NewCheckoutService(products, roster, NewEngine(products, roster), store, billsDir, discard(), nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }
	svc.newRef = func() string { return "ref-0001" }
	return svc, dir
}

func TestCheckoutCommitsStockAndWritesBill(t *testing.T) {
	svc, dir := newCheckoutService(t)

	cart := &Cart{CustomerID: "c02"}
	require.NoError(t, svc.StageLine(cart, "p01", 10))
	require.NoError(t, svc.StageLine(cart, "p02", 2))

	bill, err := svc.Checkout(context.Background(), cart)
	require.NoError(t, err)
	require.Equal(t, "ref-0001", bill.Ref)
	require.Len(t, bill.Lines, 2)
	// p01: 10 x 80 with 5% tier discount; p02: 2 x 12 with 5%.
	require.InDelta(t, 760+22.8, bill.Total, 1e-9)

	p, err := svc.products.FindByID("p01")
	require.NoError(t, err)
	require.Equal(t, 40, p.Stock)

	require.Equal(t, filepath.Join(dir, "bills", "Bill_20260314_150926.txt"), bill.Path)
	data, err := os.ReadFile(bill.Path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "===== MERIDIAN POS BILL =====")
	require.Contains(t, content, "Ref:  ref-0001")
	require.Contains(t, content, "Customer: Kamala (VIP)")
	require.Contains(t, content, "GRAND TOTAL: Rs. 782.80")
	require.Contains(t, content, "Thank you for shopping!")
}

func TestCheckoutGuestSaleHasNoTierDiscount(t *testing.T) {
	svc, _ := newCheckoutService(t)

	cart := &Cart{}
	require.NoError(t, svc.StageLine(cart, "p01", 4))

	bill, err := svc.Checkout(context.Background(), cart)
	require.NoError(t, err)
	require.Nil(t, bill.Customer)
	require.InDelta(t, 400, bill.Total, 1e-9)

	data, err := os.ReadFile(bill.Path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Customer: Guest")
}

func TestCheckoutInsufficientStockAbortsEverything(t *testing.T) {
	svc, dir := newCheckoutService(t)

	productsPath := filepath.Join(dir, "products.csv")
	before, err := os.ReadFile(productsPath)
	require.NoError(t, err)

	// p02 only has 3 in stock; staging bypasses the add-time check here
	// to exercise the commit-time one.
	cart := &Cart{}
	cart.Add("p01", 2)
	cart.Add("p02", 5)

	_, err = svc.Checkout(context.Background(), cart)
	require.True(t, shared.IsStock(err))

	after, err := os.ReadFile(productsPath)
	require.NoError(t, err)
	require.Equal(t, before, after)

	p, err := svc.products.FindByID("p01")
	require.NoError(t, err)
	require.Equal(t, 50, p.Stock, "no partial decrement on abort")

	entries, err := os.ReadDir(filepath.Join(dir, "bills"))
	if err == nil {
		require.Empty(t, entries, "no receipt for a rejected checkout")
	}
}

func TestStageLineEnforcesStockAcrossTheCart(t *testing.T) {
	svc, _ := newCheckoutService(t)

	cart := &Cart{}
	require.NoError(t, svc.StageLine(cart, "p02", 2))

	err := svc.StageLine(cart, "p02", 2)
	require.True(t, shared.IsStock(err))
	var stockErr *shared.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 4, stockErr.Requested)
	require.Equal(t, 3, stockErr.Available)
	require.Equal(t, 2, cart.Quantity("p02"), "failed stage must not grow the cart")

	require.True(t, shared.IsValidation(svc.StageLine(cart, "p02", 0)))
	require.True(t, shared.IsNotFound(svc.StageLine(cart, "p99", 1)))
}

func TestCheckoutRejectsEmptyCartAndCancelledContext(t *testing.T) {
	svc, _ := newCheckoutService(t)

	_, err := svc.Checkout(context.Background(), &Cart{})
	require.True(t, shared.IsValidation(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cart := &Cart{}
	cart.Add("p01", 1)
	_, err = svc.Checkout(ctx, cart)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckoutUnknownCustomerFails(t *testing.T) {
	svc, _ := newCheckoutService(t)

	cart := &Cart{CustomerID: "c99"}
	cart.Add("p01", 1)
	_, err := svc.Checkout(context.Background(), cart)
	require.True(t, shared.IsNotFound(err))
}
