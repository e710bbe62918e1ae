// Package platform provides per-platform adapters that normalize scraped
// availability signals into a uniform stock status.
package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// Adapter fetches the raw page for a (product, pincode) pair and maps it to
// a normalized observation. Adapters never retry; retry policy lives in the
// orchestrator so backoff stays uniform across platforms.
type Adapter interface {
	Name() models.Platform
	Fetch(ctx context.Context, target models.Target) (models.Observation, error)
}

// Registry maps platforms to their adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.Platform]Adapter
}

// NewRegistry creates a registry with all built-in adapters, sharing a single
// fetcher (and its connection pool) across platforms.
func NewRegistry(timeout time.Duration) *Registry {
	fetcher := newFetcher(timeout)
	r := &Registry{adapters: make(map[models.Platform]Adapter)}
	r.Register(NewBlinkitAdapter(fetcher))
	r.Register(NewSwiggyAdapter(fetcher))
	r.Register(NewZeptoAdapter(fetcher))
	return r
}

// Register adds or replaces the adapter for its platform.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter for a platform.
func (r *Registry) Get(p models.Platform) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", p)
	}
	return a, nil
}

// invalidTarget builds the fail-fast error for a malformed product URL.
func invalidTarget(target models.Target, reason string) error {
	return apperrors.NewFetchError(apperrors.InvalidTarget, target, fmt.Errorf("%s", reason))
}
