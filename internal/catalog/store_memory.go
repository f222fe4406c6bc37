package catalog

import (
	"context"
	"strings"
	"sync"

	"serviapp/pkg/platform/sentinel"
)

// InMemoryStore is the development and test catalog. Lookup is
// case-insensitive on both slugs and labels, matching the postgres store's
// citext behavior.
type InMemoryStore struct {
	mu        sync.RWMutex
	services  map[string]*Service
	locations map[string]*Location
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		services:  make(map[string]*Service),
		locations: make(map[string]*Location),
	}
}

// AddService registers a service. Used by seeding and tests.
func (s *InMemoryStore) AddService(svc *Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[strings.ToLower(svc.Slug)] = svc
}

// AddLocation registers a coverage area. Used by seeding and tests.
func (s *InMemoryStore) AddLocation(loc *Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[strings.ToLower(loc.Label)] = loc
}

func (s *InMemoryStore) ServiceBySlug(_ context.Context, slug string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return svc, nil
}

func (s *InMemoryStore) LocationByLabel(_ context.Context, label string) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[strings.ToLower(label)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return loc, nil
}

func (s *InMemoryStore) ListServices(_ context.Context) ([]*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	return out, nil
}

func (s *InMemoryStore) ListLocations(_ context.Context) ([]*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	return out, nil
}
