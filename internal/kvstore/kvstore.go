// Package kvstore is a small durable key-value abstraction so the processing
// ledger does not depend on any particular on-disk layout.
package kvstore

import "context"

// Store persists JSON-serializable values by key.
type Store interface {
	// Get unmarshals the stored value for key into dst. It returns false when
	// the key does not exist or the stored value cannot be parsed; corruption
	// is deliberately indistinguishable from absence.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Put(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
