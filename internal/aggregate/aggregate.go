// Package aggregate merges the per-source record lists into one
// deduplicated, noise-filtered, ranked dataset.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

// DefaultNoiseThreshold is the minimum absolute 30d change (in
// percent) a record needs to survive filtering. Entries at or below it
// are almost always stale or broken source data.
const DefaultNoiseThreshold = 0.1

// Aggregator merges adapter outputs. The zero value is not usable;
// construct with New.
type Aggregator struct {
	noiseThreshold float64
}

func New(noiseThreshold float64) *Aggregator {
	if noiseThreshold <= 0 {
		noiseThreshold = DefaultNoiseThreshold
	}
	return &Aggregator{noiseThreshold: noiseThreshold}
}

// Merge concatenates all source lists, deduplicates by uppercased
// symbol keeping the record with the largest absolute 30d change,
// drops noise-level entries and sorts descending by absolute 30d
// change. Returns domain.ErrNoData when every input list is empty, or
// when filtering leaves nothing, so callers cannot mistake a dataset
// with no usable records for success.
func (a *Aggregator) Merge(lists ...[]domain.MarketRecord) ([]domain.MarketRecord, error) {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if total == 0 {
		return nil, domain.ErrNoData
	}

	// Dedup favors the most dramatic reading, which is what a
	// biggest-movers ranking wants. Source identity does not matter.
	bySymbol := make(map[string]domain.MarketRecord, total)
	for _, l := range lists {
		for _, rec := range l {
			rec.Symbol = strings.ToUpper(rec.Symbol)
			existing, ok := bySymbol[rec.Symbol]
			if !ok || math.Abs(rec.MonthlyChange) > math.Abs(existing.MonthlyChange) {
				bySymbol[rec.Symbol] = rec
			}
		}
	}

	merged := make([]domain.MarketRecord, 0, len(bySymbol))
	for _, rec := range bySymbol {
		if math.Abs(rec.MonthlyChange) <= a.noiseThreshold {
			continue
		}
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return math.Abs(merged[i].MonthlyChange) > math.Abs(merged[j].MonthlyChange)
	})

	log.Debug().
		Int("raw", total).
		Int("unique", len(bySymbol)).
		Int("final", len(merged)).
		Float64("noise_threshold", a.noiseThreshold).
		Msg("merged source data")

	if len(merged) == 0 {
		return nil, domain.ErrNoData
	}
	return merged, nil
}

// Gainers returns up to n records with positive 30d change, in ranked
// order. The input is assumed to already be sorted by Merge.
func Gainers(records []domain.MarketRecord, n int) []domain.MarketRecord {
	return takeWhere(records, n, func(r domain.MarketRecord) bool { return r.MonthlyChange > 0 })
}

// Losers returns up to n records with negative 30d change.
func Losers(records []domain.MarketRecord, n int) []domain.MarketRecord {
	return takeWhere(records, n, func(r domain.MarketRecord) bool { return r.MonthlyChange < 0 })
}

func takeWhere(records []domain.MarketRecord, n int, keep func(domain.MarketRecord) bool) []domain.MarketRecord {
	out := make([]domain.MarketRecord, 0, n)
	for _, r := range records {
		if len(out) == n {
			break
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
