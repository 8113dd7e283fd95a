// Package journal provides the append-only order/event log.
package journal

import (
	"context"

	"github.com/openquant/helix/internal/core"
)

// Journal defines the interface for event sinks. Append must be safe for
// concurrent use; events are never updated or deleted.
type Journal interface {
	// Append persists one event.
	Append(ctx context.Context, event core.Event) error

	// Close flushes and releases the sink.
	Close() error
}
