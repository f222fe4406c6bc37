// Package store persists registration requests. Implementations return
// sentinel errors; services translate them into coded domain errors.
package store

import (
	"context"

	"serviapp/internal/registration/models"
	"serviapp/internal/upload"
	id "serviapp/pkg/domain"
)

// Store is the registration persistence contract.
//
// Create must refuse a registration whose canonical phone matches an existing
// non-rejected row (sentinel.ErrConflict). The read-then-write duplicate
// guard in the service is not atomic; this constraint is the authoritative
// backstop under concurrent submissions.
//
// UpdateStatus must be conditional on the expected prior status
// (sentinel.ErrInvalidState when the row has moved on) so concurrent
// approvals serialize at the store.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	Get(ctx context.Context, regID id.RegistrationID) (*models.Registration, error)
	ExistsActiveByPhone(ctx context.Context, phone string) (bool, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Registration, error)
	ListByPhone(ctx context.Context, phone string) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, regID id.RegistrationID, expected []models.Status, next models.Status) error
	SetPhotoPath(ctx context.Context, regID id.RegistrationID, kind upload.PhotoKind, path string) error
}
