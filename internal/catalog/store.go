package catalog

import (
	"context"
)

// Store resolves catalog entries. Lookups return sentinel.ErrNotFound for
// unknown slugs/labels; the synchronizer treats those as droppable entries
// rather than failures.
type Store interface {
	ServiceBySlug(ctx context.Context, slug string) (*Service, error)
	LocationByLabel(ctx context.Context, label string) (*Location, error)
	ListServices(ctx context.Context) ([]*Service, error)
	ListLocations(ctx context.Context) ([]*Location, error)
}
