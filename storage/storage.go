package storage

import "context"

// Store is a minimal key/value persistence contract. Implementations must
// be safe for concurrent use and must treat Save and Delete as atomic
// whole-value operations.
type Store interface {
	// Load returns the stored value and whether the key was present.
	Load(ctx context.Context, key string) (string, bool, error)
	// Save replaces any existing value under key.
	Save(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
