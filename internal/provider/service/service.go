// Package service implements provider admin CRUD, association sync and card
// photo selection.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"serviapp/internal/identity"
	"serviapp/internal/provider/metrics"
	"serviapp/internal/provider/models"
	"serviapp/internal/provider/store"
	regmodels "serviapp/internal/registration/models"
	"serviapp/internal/upload"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
	"serviapp/pkg/platform/audit"
	"serviapp/pkg/platform/audit/publisher"
	"serviapp/pkg/platform/middleware/auth"
	"serviapp/pkg/platform/middleware/request"
	"serviapp/pkg/platform/sentinel"
)

// RegistrationSource lists a provider's historical registrations, matched by
// canonical phone. Photo candidates come from these rows.
type RegistrationSource interface {
	ListByPhone(ctx context.Context, phone string) ([]*regmodels.Registration, error)
}

// Service is the provider application service used by the admin handler.
type Service struct {
	providers     store.Store
	registrations RegistrationSource
	sync          *Synchronizer
	audit         *publisher.Publisher
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics attaches provider metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(providers store.Store, registrations RegistrationSource, sync *Synchronizer, auditPub *publisher.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		providers:     providers,
		registrations: registrations,
		sync:          sync,
		audit:         auditPub,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds a provider from the admin payload, derives a unique slug and
// syncs its catalog associations.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.Provider, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	phone := identity.NormalizePhone(req.Phone)
	status := req.Status
	if status == "" {
		status = models.StatusActive
	}

	providerID := domain.NewProviderID()
	slug, err := s.uniqueSlug(ctx, req.Name, providerID)
	if err != nil {
		return nil, err
	}

	p := &models.Provider{
		ID:            providerID,
		Name:          req.Name,
		Slug:          slug,
		Phone:         phone,
		Email:         req.Email,
		DescriptionES: req.DescriptionES,
		DescriptionEN: req.DescriptionEN,
		PriceRange:    req.PriceRange,
		ResponseTime:  req.ResponseTime,
		Rating:        models.DefaultRating,
		ReviewCount:   models.DefaultReviewCount,
		SpeaksEnglish: req.SpeaksEnglish,
		Verified:      req.Verified,
		Featured:      req.Featured,
		Status:        status,
	}

	if err := s.providers.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicate, "a provider with this phone or slug already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create provider")
	}

	if err := s.sync.Sync(ctx, p.ID, req.ServiceSlugs, req.AreaLabels); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to sync provider associations")
	}

	s.metrics.RecordCreate()
	s.emit(ctx, audit.EventProviderCreated, p.ID)
	s.logger.InfoContext(ctx, "provider created",
		"provider_id", p.ID.String(), "slug", p.Slug,
		"request_id", request.GetRequestID(ctx))
	return p, nil
}

// Update applies a partial admin edit. Only fields present in the payload
// change; a nil slug/label list leaves that association set untouched.
func (s *Service) Update(ctx context.Context, providerID domain.ProviderID, req *models.UpdateRequest) (*models.Provider, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "provider not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load provider")
	}

	applyUpdate(p, req)

	if err := s.providers.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicate, "a provider with this phone or slug already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update provider")
	}

	if req.ServiceSlugs != nil {
		if err := s.sync.SyncServices(ctx, p.ID, *req.ServiceSlugs); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to sync service associations")
		}
	}
	if req.AreaLabels != nil {
		if err := s.sync.SyncLocations(ctx, p.ID, *req.AreaLabels); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to sync area associations")
		}
	}

	s.metrics.RecordUpdate()
	s.emit(ctx, audit.EventProviderUpdated, p.ID)
	return p, nil
}

// Get returns one provider.
func (s *Service) Get(ctx context.Context, providerID domain.ProviderID) (*models.Provider, error) {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "provider not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load provider")
	}
	return p, nil
}

// List returns all providers for admin screens.
func (s *Service) List(ctx context.Context) ([]*models.Provider, error) {
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list providers")
	}
	return providers, nil
}

// ListCandidatePhotos gathers photos from the provider's historical
// registrations. Profile photos are selectable as the public card photo;
// identity documents are listed for moderator context only.
func (s *Service) ListCandidatePhotos(ctx context.Context, providerID domain.ProviderID) ([]models.CandidatePhoto, error) {
	p, err := s.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	regs, err := s.registrations.ListByPhone(ctx, p.Phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list registrations")
	}

	seen := make(map[string]bool)
	var photos []models.CandidatePhoto
	for _, reg := range regs {
		if path := reg.ProfilePhotoPath; path != "" && !seen[path] {
			seen[path] = true
			photos = append(photos, models.CandidatePhoto{
				Path:       path,
				Kind:       string(upload.KindProfile),
				Selectable: upload.IsSelectableCardPhoto(path),
			})
		}
		if path := reg.DocumentPhotoPath; path != "" && !seen[path] {
			seen[path] = true
			photos = append(photos, models.CandidatePhoto{
				Path:       path,
				Kind:       string(upload.KindDocument),
				Selectable: false,
			})
		}
	}
	return photos, nil
}

// SelectCardPhoto sets the provider's public card photo. The path must be a
// selectable candidate from the provider's own registrations; identity
// documents are refused regardless of how the path is spelled.
func (s *Service) SelectCardPhoto(ctx context.Context, providerID domain.ProviderID, path string) error {
	if path == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "photo path is required")
	}
	if !upload.IsSelectableCardPhoto(path) {
		s.metrics.RecordCardPhotoSelection("rejected_document")
		return dErrors.New(dErrors.CodeInvalidInput, "identity document photos cannot be used as the card photo")
	}

	candidates, err := s.ListCandidatePhotos(ctx, providerID)
	if err != nil {
		return err
	}
	selectable := false
	for _, c := range candidates {
		if c.Path == path && c.Selectable {
			selectable = true
			break
		}
	}
	if !selectable {
		s.metrics.RecordCardPhotoSelection("rejected_unknown")
		return dErrors.New(dErrors.CodeInvalidInput, "photo is not a selectable candidate for this provider")
	}

	if err := s.providers.SetCardPhoto(ctx, providerID, path); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "provider not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to set card photo")
	}

	s.metrics.RecordCardPhotoSelection("selected")
	s.emit(ctx, audit.EventCardPhotoSelected, providerID)
	return nil
}

// uniqueSlug derives the profile slug from the name and disambiguates
// deterministically from the provider ID when the plain slug is taken.
func (s *Service) uniqueSlug(ctx context.Context, name string, providerID domain.ProviderID) (string, error) {
	slug := identity.Slugify(name)
	if slug == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "name does not produce a usable slug")
	}
	taken, err := s.providers.SlugExists(ctx, slug)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check slug")
	}
	if !taken {
		return slug, nil
	}
	return identity.SlugWithSuffix(slug, providerID.UUID()), nil
}

func applyUpdate(p *models.Provider, req *models.UpdateRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.DescriptionES != nil {
		p.DescriptionES = *req.DescriptionES
	}
	if req.DescriptionEN != nil {
		p.DescriptionEN = *req.DescriptionEN
	}
	if req.PriceRange != nil {
		p.PriceRange = *req.PriceRange
	}
	if req.ResponseTime != nil {
		p.ResponseTime = *req.ResponseTime
	}
	if req.SpeaksEnglish != nil {
		p.SpeaksEnglish = *req.SpeaksEnglish
	}
	if req.Verified != nil {
		p.Verified = *req.Verified
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, providerID domain.ProviderID) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:  time.Now(),
		Action:     string(action),
		ProviderID: providerID.String(),
		ActorID:    auth.GetModeratorID(ctx),
		RequestID:  request.GetRequestID(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action, "error", err)
	}
}
