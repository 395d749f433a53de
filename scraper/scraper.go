// Package scraper defines the marketplace adapter capability and the
// normalization helpers shared by all concrete adapters.
package scraper

import (
	"context"
	"sync"

	"github.com/kh40/Vintage-Gear-Finder/models"
)

// Adapter is a source-specific fetch strategy for one marketplace.
//
// Fetch returns normalized listings for a single search term. Adapters
// recover internally from request and parse failures (API falls back to
// HTML, malformed items are skipped), so outside of context cancellation
// a failed fetch surfaces as an empty slice, not an error.
type Adapter interface {
	Marketplace() models.Marketplace
	Fetch(ctx context.Context, term string) ([]models.Listing, error)
}

// Registry holds the set of active marketplace adapters. New marketplaces
// plug in by registering an Adapter; the orchestrator never names a
// marketplace directly.
type Registry struct {
	mu       sync.Mutex
	adapters []Adapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an adapter. Registration order is the query order.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, a)
}

// Adapters returns the registered adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Adapter(nil), r.adapters...)
}
