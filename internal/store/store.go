// Package store provides persistence for last-known status records.
package store

import (
	"context"

	"pinstock/internal/models"
)

// StatusStore is the durable mapping from a target key to the last observed
// status record. Get on an absent key returns ErrRecordNotFound; callers
// default to an Unknown status. Implementations must be safe for concurrent
// writes to distinct keys; the orchestrator guarantees a key is only written
// by one worker at a time.
type StatusStore interface {
	// Get returns the record for a target key.
	Get(ctx context.Context, key string) (models.StatusRecord, error)

	// Put upserts the record for its target key.
	Put(ctx context.Context, record models.StatusRecord) error

	// LoadAll returns every persisted record, keyed by target key.
	LoadAll(ctx context.Context) (map[string]models.StatusRecord, error)

	// Close releases the underlying resources.
	Close() error
}
