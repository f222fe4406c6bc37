// Package store persists provider profiles and their service/location
// associations.
package store

import (
	"context"

	"serviapp/internal/provider/models"
	"serviapp/pkg/domain"
)

// Store is the provider persistence interface.
//
// Create returns sentinel.ErrConflict when the phone or slug is already
// taken. Get, GetByPhone and Update return sentinel.ErrNotFound when no
// matching provider exists. ReplaceServices and ReplaceLocations swap the
// full association set and participate in any transaction carried by ctx.
type Store interface {
	Create(ctx context.Context, p *models.Provider) error
	Update(ctx context.Context, p *models.Provider) error
	Get(ctx context.Context, id domain.ProviderID) (*models.Provider, error)
	GetByPhone(ctx context.Context, phone string) (*models.Provider, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]*models.Provider, error)
	ReplaceServices(ctx context.Context, id domain.ProviderID, serviceIDs []domain.ServiceID) error
	ReplaceLocations(ctx context.Context, id domain.ProviderID, locationIDs []domain.LocationID) error
	ServiceIDs(ctx context.Context, id domain.ProviderID) ([]domain.ServiceID, error)
	LocationIDs(ctx context.Context, id domain.ProviderID) ([]domain.LocationID, error)
	SetCardPhoto(ctx context.Context, id domain.ProviderID, path string) error
}
