package arena

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrCycleNotFound is returned when no resolution is recorded for a cycle.
var ErrCycleNotFound = errors.New("cycle not found")

// History lists settled cycles, most recent first.
type History interface {
	Recent(ctx context.Context, limit int) ([]Resolution, error)
	Get(ctx context.Context, id uuid.UUID) (Resolution, error)
}

// MemoryHistory is a bounded in-process History that also acts as a
// Settlement. It is used when no database is configured.
type MemoryHistory struct {
	mu       sync.Mutex
	capacity int
	items    []Resolution
}

// NewMemoryHistory keeps at most capacity resolutions.
//
// Precondition: capacity > 0.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryHistory{capacity: capacity}
}

// Settle records r, evicting the oldest entry when full.
func (m *MemoryHistory) Settle(_ context.Context, r Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, r)
	if len(m.items) > m.capacity {
		m.items = m.items[len(m.items)-m.capacity:]
	}
	return nil
}

// Recent returns up to limit resolutions, newest first.
func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.items) {
		limit = len(m.items)
	}
	out := make([]Resolution, 0, limit)
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}

// Get returns the resolution for id or ErrCycleNotFound.
func (m *MemoryHistory) Get(_ context.Context, id uuid.UUID) (Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.CycleID == id {
			return r, nil
		}
	}
	return Resolution{}, ErrCycleNotFound
}
