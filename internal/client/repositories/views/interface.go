package views

import "context"

// SchemaVersion tags every stored snapshot. Snapshots written under a
// different version are discarded on read instead of being misinterpreted.
const SchemaVersion = 1

// Repository is the durable store for cached view snapshots, keyed by query
// identity. Values are opaque blobs owned by the optimistic cache layer.
type Repository interface {
	// Get returns the snapshot for key, or nil when absent, written under a
	// different schema version, or unreadable.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the snapshot for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the snapshot for key.
	Delete(ctx context.Context, key string) error
}
