// Package sources contains one adapter per upstream market data feed
// and the concurrent fan-out that runs them. Adapters normalize
// heterogeneous API responses into domain.MarketRecord, isolating
// field renames and format quirks from the rest of the pipeline.
package sources

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cryptomonth/cryptomonth/internal/domain"
	"github.com/cryptomonth/cryptomonth/internal/metrics"
)

// Source is one upstream feed. Fetch returns the normalized records or
// an error; it must honor ctx cancellation.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.MarketRecord, error)
}

// Config holds the per-source knobs resolved by the config package.
type Config struct {
	BaseURL string
	RPS     float64
	Burst   int
	Timeout time.Duration
	// PageSize bounds how many rows the adapter requests upstream.
	PageSize int
}

// FetchAll runs every source concurrently and waits for all of them
// to settle. It is the failure boundary of the pipeline: a source
// error or timeout is logged and counted, and that source contributes
// an empty slice. No source failure cancels or delays the others
// beyond the shared deadline.
func FetchAll(ctx context.Context, perSourceTimeout time.Duration, srcs ...Source) [][]domain.MarketRecord {
	if perSourceTimeout <= 0 {
		perSourceTimeout = 30 * time.Second
	}

	results := make([][]domain.MarketRecord, len(srcs))
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, perSourceTimeout)
			defer cancel()

			start := time.Now()
			records, err := src.Fetch(fetchCtx)
			if err != nil {
				metrics.SourceFetchFailures.WithLabelValues(src.Name()).Inc()
				metrics.SourceRecords.WithLabelValues(src.Name()).Set(0)
				log.Warn().
					Err(err).
					Str("source", src.Name()).
					Dur("elapsed", time.Since(start)).
					Msg("source fetch failed, continuing without it")
				return
			}

			results[i] = records
			metrics.SourceRecords.WithLabelValues(src.Name()).Set(float64(len(records)))
			log.Info().
				Str("source", src.Name()).
				Int("records", len(records)).
				Dur("elapsed", time.Since(start)).
				Msg("source fetch complete")
		}(i, src)
	}
	wg.Wait()

	return results
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
