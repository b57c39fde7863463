package advertiser

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store. Contents are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	subs map[string]Submission
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string]Submission)}
}

func (m *Memory) Create(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = sub
	return nil
}

func (m *Memory) Update(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub.ID]; !ok {
		return ErrNotFound
	}
	m.subs[sub.ID] = sub
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

func (m *Memory) List(_ context.Context) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Submission, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return out, nil
}
