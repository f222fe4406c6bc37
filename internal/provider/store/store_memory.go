package store

import (
	"context"
	"sync"
	"time"

	"serviapp/internal/provider/models"
	"serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed Store for tests and demo mode.
type InMemoryStore struct {
	mu        sync.RWMutex
	providers map[domain.ProviderID]*models.Provider
	services  map[domain.ProviderID][]domain.ServiceID
	locations map[domain.ProviderID][]domain.LocationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		providers: make(map[domain.ProviderID]*models.Provider),
		services:  make(map[domain.ProviderID][]domain.ServiceID),
		locations: make(map[domain.ProviderID][]domain.LocationID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.providers {
		if existing.Phone == p.Phone || existing.Slug == p.Slug {
			return sentinel.ErrConflict
		}
	}

	now := time.Now().UTC()
	clone := *p
	clone.CreatedAt = now
	clone.UpdatedAt = now
	s.providers[p.ID] = &clone
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, p *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.providers[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for id, other := range s.providers {
		if id == p.ID {
			continue
		}
		if other.Phone == p.Phone || other.Slug == p.Slug {
			return sentinel.ErrConflict
		}
	}

	clone := *p
	clone.CreatedAt = existing.CreatedAt
	clone.UpdatedAt = time.Now().UTC()
	s.providers[p.ID] = &clone
	p.CreatedAt = clone.CreatedAt
	p.UpdatedAt = clone.UpdatedAt
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.ProviderID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *InMemoryStore) GetByPhone(_ context.Context, phone string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.providers {
		if p.Phone == phone {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.providers {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryStore) ReplaceServices(_ context.Context, id domain.ProviderID, serviceIDs []domain.ServiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[id]; !ok {
		return sentinel.ErrNotFound
	}
	s.services[id] = append([]domain.ServiceID(nil), serviceIDs...)
	return nil
}

func (s *InMemoryStore) ReplaceLocations(_ context.Context, id domain.ProviderID, locationIDs []domain.LocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[id]; !ok {
		return sentinel.ErrNotFound
	}
	s.locations[id] = append([]domain.LocationID(nil), locationIDs...)
	return nil
}

func (s *InMemoryStore) ServiceIDs(_ context.Context, id domain.ProviderID) ([]domain.ServiceID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ServiceID(nil), s.services[id]...), nil
}

func (s *InMemoryStore) LocationIDs(_ context.Context, id domain.ProviderID) ([]domain.LocationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LocationID(nil), s.locations[id]...), nil
}

func (s *InMemoryStore) SetCardPhoto(_ context.Context, id domain.ProviderID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.CardPhotoPath = path
	p.UpdatedAt = time.Now().UTC()
	return nil
}
