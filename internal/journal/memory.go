package journal

import (
	"context"
	"sync"

	"github.com/openquant/helix/internal/core"
)

// MemoryJournal is an in-memory event log, used by tests and as a bounded
// recent-events buffer.
type MemoryJournal struct {
	events  []core.Event
	maxSize int
	mu      sync.RWMutex
}

var _ Journal = (*MemoryJournal)(nil)

// NewMemory creates an in-memory journal keeping at most maxSize events
// (0 means unbounded).
func NewMemory(maxSize int) *MemoryJournal {
	return &MemoryJournal{maxSize: maxSize}
}

// Append adds an event to the log.
func (m *MemoryJournal) Append(ctx context.Context, event core.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	// Trim if over capacity (drop oldest)
	if m.maxSize > 0 && len(m.events) > m.maxSize {
		m.events = m.events[len(m.events)-m.maxSize:]
	}
	return nil
}

// Close is a no-op for the memory journal.
func (m *MemoryJournal) Close() error {
	return nil
}

// ListFilter defines criteria for listing events.
type ListFilter struct {
	Symbol string
	Kind   core.EventKind
}

// List returns events matching the filter, oldest first.
func (m *MemoryJournal) List(filter ListFilter) []core.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Event
	for _, e := range m.events {
		if filter.Symbol != "" && e.Symbol != filter.Symbol {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len returns the number of stored events.
func (m *MemoryJournal) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}
