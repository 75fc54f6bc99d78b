package billing

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/customers"
	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixtures(t *testing.T) (*catalog.Repository, *customers.Repository, *filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := filestore.New(discard(), nil)

	products, err := catalog.Open(store, filepath.Join(dir, "products.csv"), discard())
	require.NoError(t, err)
	_, err = products.Add(catalog.Product{
		ID:            "p01",
		Name:          "Atlas",
		UnitPrice:     100,
		Stock:         50,
		DiscountRules: map[int]float64{5: 95, 10: 80},
	})
	require.NoError(t, err)
	_, err = products.Add(catalog.Product{ID: "p02", Name: "Pen", UnitPrice: 12, Stock: 3})
	require.NoError(t, err)

	roster, err := customers.Open(store, filepath.Join(dir, "customers.csv"), discard())
	require.NoError(t, err)
	_, err = roster.Add(customers.Customer{ID: "c01", Name: "Nimal", Type: customers.TypeRegular})
	require.NoError(t, err)
	_, err = roster.Add(customers.Customer{ID: "c02", Name: "Kamala", Type: customers.TypeVIP})
	require.NoError(t, err)

	return products, roster, store, dir
}

func TestPriceLineAppliesBulkAndTierDiscounts(t *testing.T) {
	products, roster, _, _ := newFixtures(t)
	engine := NewEngine(products, roster)

	cases := []struct {
		name       string
		qty        int
		customerID string
		want       float64
	}{
		{"below every threshold", 4, "c01", 400},
		{"first threshold", 5, "c01", 475},
		{"second threshold for vip", 10, "c02", 760},
		{"guest sale", 5, "", 475},
		{"vip below thresholds", 4, "c02", 380},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.PriceLine("p01", tc.qty, tc.customerID)
			require.NoError(t, err)
			require.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestPriceLineByNameIsCaseInsensitive(t *testing.T) {
	products, roster, _, _ := newFixtures(t)
	engine := NewEngine(products, roster)

	got, err := engine.PriceLineByName("atlas", 5, "c01")
	require.NoError(t, err)
	require.InDelta(t, 475, got, 1e-9)
}

func TestPriceLineRejectsUnknownsAndBadQuantities(t *testing.T) {
	products, roster, _, _ := newFixtures(t)
	engine := NewEngine(products, roster)

	_, err := engine.PriceLine("p99", 1, "c01")
	require.True(t, shared.IsNotFound(err))

	_, err = engine.PriceLine("p01", 1, "c99")
	require.True(t, shared.IsNotFound(err))

	_, err = engine.PriceLine("p01", 0, "c01")
	require.True(t, shared.IsValidation(err))

	_, err = engine.PriceLine("p01", -3, "c01")
	require.True(t, shared.IsValidation(err))
}

type flatSurcharge struct{ amount float64 }

func (f flatSurcharge) Apply(total float64, _ catalog.Product, _ int, _ *customers.Customer) float64 {
	return total + f.amount
}

func TestAppendExtendsThePipeline(t *testing.T) {
	products, roster, _, _ := newFixtures(t)
	engine := NewEngine(products, roster)
	engine.Append(flatSurcharge{amount: 25})

	got, err := engine.PriceLine("p01", 4, "c01")
	require.NoError(t, err)
	require.InDelta(t, 425, got, 1e-9)
}

func TestTierFallbackRateForVIPWithoutOwnRate(t *testing.T) {
	vip := customers.Customer{Type: customers.TypeVIP}
	got := VIPDiscount{}.Apply(1000, catalog.Product{}, 1, &vip)
	require.InDelta(t, 950, got, 1e-9)

	got = VIPDiscount{}.Apply(1000, catalog.Product{}, 1, nil)
	require.InDelta(t, 1000, got, 1e-9)
}

func TestCartMergesDuplicateLines(t *testing.T) {
	cart := &Cart{}
	require.True(t, cart.Empty())

	cart.Add("p01", 2)
	cart.Add("p01", 3)
	cart.Add("p02", 1)
	require.Equal(t, 5, cart.Quantity("p01"))
	require.Len(t, cart.Lines, 2)

	cart.Clear()
	require.True(t, cart.Empty())
}
