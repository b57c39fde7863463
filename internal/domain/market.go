// Package domain holds the normalized market data types shared by the
// source adapters, the aggregator and the presentation layers.
package domain

import (
	"errors"
	"time"
)

// ErrNoData indicates that every source returned an empty result set.
// Callers must surface this condition rather than treating an empty
// aggregate as success.
var ErrNoData = errors.New("no market data available from any source")

// Quote is a generated piece of newsletter copy attached to a record.
// Quotes are synthetic marketing text derived from price performance,
// not real news coverage.
type Quote struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Date   string `json:"date"`
	Link   string `json:"link"`
}

// MarketRecord is the unit of data flowing through the pipeline. One
// record per asset per source before deduplication; symbol-unique
// afterwards.
type MarketRecord struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"currentPrice"`
	MonthlyChange float64 `json:"monthlyChange"`
	WeeklyChange  float64 `json:"weeklyChange"`
	MarketCapRank int     `json:"marketCapRank,omitempty"`
	Volume24h     float64 `json:"volume24h,omitempty"`
	MarketCap     float64 `json:"marketCap,omitempty"`

	// Source tags the adapter that produced the record. It is a label,
	// not part of the record's identity.
	Source string `json:"source"`

	// Estimated is set when the 30d/7d figures were scaled from a 24h
	// change rather than measured. Renderers must caveat such rows.
	Estimated bool `json:"estimated,omitempty"`

	// Fields below are synthesized by the narrative generator. They are
	// generated display flavor, not measured sentiment or mention data.
	Mentions  int      `json:"mentions,omitempty"`
	Sentiment float64  `json:"sentiment,omitempty"`
	Quotes    []Quote  `json:"quotes,omitempty"`
	Exchanges []string `json:"exchanges,omitempty"`
}

// Snapshot is one aggregation run's output: the ranked record list
// plus provenance for the data-status UI.
type Snapshot struct {
	Records      []MarketRecord `json:"records"`
	FetchedAt    time.Time      `json:"fetchedAt"`
	SourceCounts map[string]int `json:"sourceCounts"`
}
