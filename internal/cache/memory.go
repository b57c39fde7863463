package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cryptomonth/cryptomonth/internal/domain"
)

// Memory is an in-process TTL cache for the snapshot. Safe for
// concurrent use.
type Memory struct {
	mu      sync.RWMutex
	snap    *domain.Snapshot
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context) (*domain.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil || m.now().After(m.expires) {
		return nil, false, nil
	}
	return m.snap, true, nil
}

func (m *Memory) Set(_ context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.expires = m.now().Add(m.ttl)
	return nil
}
