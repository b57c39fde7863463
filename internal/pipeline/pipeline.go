// Package pipeline runs one fetch-merge-enrich cycle. It is the single
// aggregation entry point shared by the CLI sender, the dashboard
// server and the weekly scheduler; nothing else re-implements any part
// of the flow.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cryptomonth/cryptomonth/internal/aggregate"
	"github.com/cryptomonth/cryptomonth/internal/cache"
	"github.com/cryptomonth/cryptomonth/internal/domain"
	"github.com/cryptomonth/cryptomonth/internal/metrics"
	"github.com/cryptomonth/cryptomonth/internal/narrative"
	"github.com/cryptomonth/cryptomonth/internal/sources"
)

// Runner owns the wired pipeline stages.
type Runner struct {
	srcs         []sources.Source
	agg          *aggregate.Aggregator
	gen          *narrative.Generator
	snapshots    cache.SnapshotCache
	fetchTimeout time.Duration

	// refreshMu serializes cache refreshes so concurrent dashboard
	// requests after expiry trigger one upstream run, not many.
	refreshMu sync.Mutex
}

func New(srcs []sources.Source, agg *aggregate.Aggregator, gen *narrative.Generator,
	snapshots cache.SnapshotCache, fetchTimeout time.Duration) *Runner {
	return &Runner{
		srcs:         srcs,
		agg:          agg,
		gen:          gen,
		snapshots:    snapshots,
		fetchTimeout: fetchTimeout,
	}
}

// Run executes a fresh fetch-merge-enrich cycle, bypassing the cache.
// Returns domain.ErrNoData when every source came back empty.
func (r *Runner) Run(ctx context.Context) (*domain.Snapshot, error) {
	start := time.Now()
	results := sources.FetchAll(ctx, r.fetchTimeout, r.srcs...)

	counts := make(map[string]int, len(r.srcs))
	for i, src := range r.srcs {
		counts[src.Name()] = len(results[i])
	}

	merged, err := r.agg.Merge(results...)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			metrics.PipelineRuns.WithLabelValues("no_data").Inc()
		}
		return nil, err
	}

	merged = r.gen.Enrich(merged)

	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	metrics.AggregatedRecords.Set(float64(len(merged)))
	log.Info().
		Int("records", len(merged)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run complete")

	return &domain.Snapshot{
		Records:      merged,
		FetchedAt:    time.Now().UTC(),
		SourceCounts: counts,
	}, nil
}

// Snapshot returns the cached snapshot when fresh, otherwise runs the
// pipeline and stores the result. Dashboard reads go through here;
// batch sends call Run directly for guaranteed-fresh data.
func (r *Runner) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	if snap, ok, err := r.snapshots.Get(ctx); err != nil {
		log.Warn().Err(err).Msg("snapshot cache read failed, running pipeline")
	} else if ok {
		return snap, nil
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	// Another request may have refreshed while we waited.
	if snap, ok, err := r.snapshots.Get(ctx); err == nil && ok {
		return snap, nil
	}

	snap, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.snapshots.Set(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("snapshot cache write failed")
	}
	return snap, nil
}
