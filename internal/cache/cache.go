// Package cache stores the latest aggregation snapshot between
// pipeline runs so dashboard requests do not hit the upstream APIs on
// every page load. The snapshot is ephemeral; losing it just means
// the next request runs the pipeline again.
package cache

import (
	"context"
	"time"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

// SnapshotCache is the cache port. Implementations: Memory (default)
// and Redis (shared across processes).
type SnapshotCache interface {
	// Get returns the cached snapshot, or ok=false when absent or
	// expired.
	Get(ctx context.Context) (snap *domain.Snapshot, ok bool, err error)
	// Set stores the snapshot for the configured TTL.
	Set(ctx context.Context, snap *domain.Snapshot) error
}

// DefaultTTL matches the original product's dashboard refresh cadence.
const DefaultTTL = 2 * time.Hour
