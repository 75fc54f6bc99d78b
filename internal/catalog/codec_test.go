package catalog

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		product Product
	}{
		{
			name: "with rules",
			product: Product{
				ID:        "p01",
				Name:      "Atlas of World History",
				UnitPrice: 100,
				Stock:     40,
				DiscountRules: map[int]float64{
					5:  95,
					10: 80.5,
				},
			},
		},
		{
			name: "empty rules",
			product: Product{
				ID:            "p02",
				Name:          "Pocket Dictionary",
				UnitPrice:     25.5,
				Stock:         0,
				DiscountRules: map[int]float64{},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeLine(EncodeLine(tc.product), discard())
			require.NoError(t, err)
			require.Equal(t, tc.product, decoded)
		})
	}
}

func TestDecodeLegacyLineFormat(t *testing.T) {
	p, err := DecodeLine(`p01,Atlas,100.0,"5:95.0;10:80.0",40`, discard())
	require.NoError(t, err)
	require.Equal(t, "p01", p.ID)
	require.Equal(t, "Atlas", p.Name)
	require.InDelta(t, 100.0, p.UnitPrice, 1e-9)
	require.Equal(t, 40, p.Stock)
	require.Equal(t, map[int]float64{5: 95, 10: 80}, p.DiscountRules)
}

func TestDecodeFourColumnLineDefaultsStock(t *testing.T) {
	p, err := DecodeLine(`p03,Pen,12.0,""`, discard())
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
	require.Empty(t, p.DiscountRules)
}

func TestDecodeRejectsMalformedLines(t *testing.T) {
	cases := []string{
		"p01,OnlyThree",
		"p01,Book,not-a-price,\"\",3",
		"p01,Book,10.0,\"\",not-a-stock",
	}
	for _, line := range cases {
		_, err := DecodeLine(line, discard())
		require.Error(t, err, "line %q", line)
	}
}

func TestParseDiscountRulesSkipsBadFragments(t *testing.T) {
	rules := parseDiscountRules("5:95.0;garbage;0:10.0;x:1;7:-2;3:9.5", discard())
	require.Equal(t, map[int]float64{5: 95, 3: 9.5}, rules)
}

func TestEncodeDiscountRulesIsSortedWithoutTrailingSeparator(t *testing.T) {
	s := encodeDiscountRules(map[int]float64{10: 80, 5: 95})
	require.Equal(t, "5:95;10:80", s)
}

func TestEncodeSanitizesFormulaPrefixes(t *testing.T) {
	line := EncodeLine(Product{ID: "p01", Name: "=SUM(A1:A9)", UnitPrice: 1})
	require.Contains(t, line, ",'=SUM(A1:A9),")
}
