// Package archive provides cold storage for trade journals and
// instrument dumps, backed by the local filesystem or an
// S3-compatible object store.
package archive

import "context"

// Store is a flat key/value blob store used for end-of-day exports.
type Store interface {
	// Put stores data at the given path.
	Put(ctx context.Context, path string, data []byte) error

	// Get retrieves data from the given path.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}
