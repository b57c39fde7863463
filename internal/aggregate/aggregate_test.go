package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

func rec(symbol string, monthly float64) domain.MarketRecord {
	return domain.MarketRecord{ID: symbol, Name: symbol, Symbol: symbol, MonthlyChange: monthly}
}

func TestMerge_DedupKeepsLargestAbsoluteChange(t *testing.T) {
	agg := New(0.1)

	sourceA := []domain.MarketRecord{rec("XYZ", 12.0)}
	sourceB := []domain.MarketRecord{rec("xyz", -47.0)}

	out, err := agg.Merge(sourceA, sourceB)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "XYZ", out[0].Symbol)
	assert.Equal(t, -47.0, out[0].MonthlyChange)
}

func TestMerge_NoiseFilterBoundary(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge([]domain.MarketRecord{
		rec("DUST", 0.05),
		rec("EDGE", 0.1), // at threshold, excluded
		rec("KEEP", 0.15),
		rec("DROP", -0.05),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "KEEP", out[0].Symbol)
}

func TestMerge_PartialSourceResilience(t *testing.T) {
	agg := New(0.1)

	live := []domain.MarketRecord{rec("AAA", 10), rec("BBB", -20), rec("CCC", 5)}
	out, err := agg.Merge(nil, live, []domain.MarketRecord{})
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestMerge_AllSourcesEmpty(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge(nil, []domain.MarketRecord{}, nil)
	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Nil(t, out)
}

func TestMerge_AllRecordsBelowThreshold(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge([]domain.MarketRecord{
		rec("DUST", 0.05),
		rec("DUST2", -0.03),
	})
	require.ErrorIs(t, err, domain.ErrNoData,
		"a fully filtered dataset must not pass for a successful run")
	assert.Nil(t, out)
}

func TestMerge_SortedByAbsoluteChange(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge([]domain.MarketRecord{
		rec("A", 5), rec("B", -80), rec("C", 30), rec("D", -12),
	})
	require.NoError(t, err)
	require.Len(t, out, 4)
	for i := 0; i < len(out)-1; i++ {
		assert.GreaterOrEqual(t,
			math.Abs(out[i].MonthlyChange), math.Abs(out[i+1].MonthlyChange),
			"records %d and %d out of order", i, i+1)
	}
}

func TestMerge_SymbolUniqueAfterAggregation(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge(
		[]domain.MarketRecord{rec("BTC", 10), rec("ETH", 4)},
		[]domain.MarketRecord{rec("btc", -30), rec("ETH", 3)},
	)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range out {
		assert.False(t, seen[r.Symbol], "duplicate symbol %s", r.Symbol)
		seen[r.Symbol] = true
	}
}

func TestMerge_EndToEndScenario(t *testing.T) {
	agg := New(0.1)

	a := []domain.MarketRecord{rec("BTC", 10)}
	b := []domain.MarketRecord{rec("BTC", -30)}
	c := []domain.MarketRecord{}

	out, err := agg.Merge(a, b, c)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "BTC", out[0].Symbol)
	assert.Equal(t, -30.0, out[0].MonthlyChange)
}

func TestGainersLosersPartition(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge([]domain.MarketRecord{
		rec("A", 120), rec("B", -60), rec("C", 45), rec("D", -9), rec("E", 2),
	})
	require.NoError(t, err)

	gainers := Gainers(out, 50)
	losers := Losers(out, 10)

	assert.Len(t, gainers, 3)
	assert.Len(t, losers, 2)
	for _, g := range gainers {
		assert.Greater(t, g.MonthlyChange, 0.0)
	}
	for _, l := range losers {
		assert.Less(t, l.MonthlyChange, 0.0)
	}

	inGainers := map[string]bool{}
	for _, g := range gainers {
		inGainers[g.Symbol] = true
	}
	for _, l := range losers {
		assert.False(t, inGainers[l.Symbol], "%s appears in both views", l.Symbol)
	}
}

func TestGainersRespectsLimit(t *testing.T) {
	agg := New(0.1)

	out, err := agg.Merge([]domain.MarketRecord{
		rec("A", 10), rec("B", 20), rec("C", 30),
	})
	require.NoError(t, err)

	assert.Len(t, Gainers(out, 2), 2)
	assert.Empty(t, Losers(out, 10))
}

func TestNew_DefaultThreshold(t *testing.T) {
	agg := New(0)
	assert.Equal(t, DefaultNoiseThreshold, agg.noiseThreshold)
}
