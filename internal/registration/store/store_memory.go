package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"serviapp/internal/registration/models"
	"serviapp/internal/upload"
	id "serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in a map. Development and test use. The
// same invariants as postgres hold: phone unique among non-rejected rows,
// conditional status updates.
type InMemoryStore struct {
	mu   sync.RWMutex
	regs map[id.RegistrationID]*models.Registration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{regs: make(map[id.RegistrationID]*models.Registration)}
}

func (s *InMemoryStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.regs {
		if existing.Phone == reg.Phone && existing.Status != models.StatusRejected {
			return sentinel.ErrConflict
		}
	}

	cp := cloneRegistration(reg)
	s.regs[reg.ID] = cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, regID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRegistration(reg), nil
}

func (s *InMemoryStore) ExistsActiveByPhone(_ context.Context, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, reg := range s.regs {
		if reg.Phone == phone && reg.Status != models.StatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, reg := range s.regs {
		if reg.Status == status {
			out = append(out, cloneRegistration(reg))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *InMemoryStore) ListByPhone(_ context.Context, phone string) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, reg := range s.regs {
		if reg.Phone == phone {
			out = append(out, cloneRegistration(reg))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, regID id.RegistrationID, expected []models.Status, next models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[regID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !statusIn(reg.Status, expected) {
		return sentinel.ErrInvalidState
	}
	reg.Status = next
	reg.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) SetPhotoPath(_ context.Context, regID id.RegistrationID, kind upload.PhotoKind, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[regID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch kind {
	case upload.KindProfile:
		reg.ProfilePhotoPath = path
	case upload.KindDocument:
		reg.DocumentPhotoPath = path
	default:
		return sentinel.ErrInvalidState
	}
	reg.UpdatedAt = time.Now()
	return nil
}

func statusIn(status models.Status, set []models.Status) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}

func sortByCreatedAt(regs []*models.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
}

func cloneRegistration(reg *models.Registration) *models.Registration {
	cp := *reg
	cp.Services = append([]string(nil), reg.Services...)
	cp.Areas = append([]string(nil), reg.Areas...)
	cp.References = append([]models.ReferenceContact(nil), reg.References...)
	return &cp
}
