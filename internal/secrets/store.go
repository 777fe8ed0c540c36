// Package secrets defines the secret store contract: a durable mapping from
// canonical athlete id to token record, implemented by interchangeable
// backends (in-memory, encrypted file, redis, sqlite). The store is the only
// shared mutable state in the service; the scheduler sweep and the webhook
// dispatcher both go through this contract and never bypass it.
package secrets

import (
	"context"
)

// Store is the contract every secret store backend implements.
//
// Semantics shared by all backends:
//   - Put is an idempotent upsert keyed by canonical owner id; it overwrites
//     any existing record for that owner (last write wins).
//   - Get returns a not_found typed error when no record exists; I/O and
//     decryption failures surface as storage errors, never as not found.
//   - ListOwnerIDs returns a snapshot of known owner ids at call time; it is
//     used only by the scheduler sweep.
type Store interface {
	Put(ctx context.Context, ownerID string, record TokenRecord) error
	Get(ctx context.Context, ownerID string) (TokenRecord, error)
	ListOwnerIDs(ctx context.Context) ([]string, error)

	// Connection management
	Close() error
	Health() error
}

// StoreConfig is implemented by each backend's configuration type.
type StoreConfig interface {
	Validate() error
	GetType() string
}

// Factory creates a store from its backend-specific configuration.
type Factory interface {
	Create(config StoreConfig) (Store, error)
	GetType() string
}
