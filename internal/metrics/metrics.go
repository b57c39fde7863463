// Package metrics exposes Prometheus collectors for the aggregation
// pipeline. Collectors are registered on the default registry and
// served from the dashboard server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts full aggregation runs by outcome
	// ("ok" or "no_data").
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptomonth",
		Name:      "pipeline_runs_total",
		Help:      "Aggregation pipeline runs by outcome.",
	}, []string{"outcome"})

	// SourceFetchFailures counts adapter fetch failures by source.
	SourceFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptomonth",
		Name:      "source_fetch_failures_total",
		Help:      "Source adapter fetch failures (network, status, decode, timeout).",
	}, []string{"source"})

	// SourceRecords reports how many records each source contributed
	// to the last run, before deduplication.
	SourceRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cryptomonth",
		Name:      "source_records",
		Help:      "Records fetched per source in the last pipeline run.",
	}, []string{"source"})

	// AggregatedRecords reports the final ranked list size of the last
	// run.
	AggregatedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cryptomonth",
		Name:      "aggregated_records",
		Help:      "Records in the final ranked list of the last pipeline run.",
	})

	// BroadcastSends counts newsletter broadcast attempts by outcome
	// ("sent", "create_failed", "send_failed").
	BroadcastSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptomonth",
		Name:      "broadcast_sends_total",
		Help:      "Newsletter broadcast attempts by outcome.",
	}, []string{"outcome"})
)
