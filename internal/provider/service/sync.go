package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"serviapp/internal/catalog"
	"serviapp/internal/provider/metrics"
	"serviapp/internal/provider/store"
	"serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
	pstrings "serviapp/pkg/platform/strings"
)

// Synchronizer replaces a provider's service and coverage-area associations
// with a desired set of catalog slugs/labels. Entries that no longer resolve
// in the catalog are dropped rather than failing the whole sync; historical
// registrations routinely carry stale names.
type Synchronizer struct {
	providers store.Store
	catalog   catalog.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewSynchronizer(providers store.Store, cat catalog.Store, logger *slog.Logger, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{
		providers: providers,
		catalog:   cat,
		logger:    logger,
		metrics:   m,
	}
}

// Sync resolves the desired slugs/labels and replaces both association sets.
// Empty desired sets are valid and clear the relationship. Idempotent.
func (s *Synchronizer) Sync(ctx context.Context, providerID domain.ProviderID, serviceSlugs, areaLabels []string) error {
	if err := s.SyncServices(ctx, providerID, serviceSlugs); err != nil {
		return err
	}
	return s.SyncLocations(ctx, providerID, areaLabels)
}

// SyncServices replaces only the service association set.
func (s *Synchronizer) SyncServices(ctx context.Context, providerID domain.ProviderID, serviceSlugs []string) error {
	serviceIDs, err := s.resolveServices(ctx, providerID, serviceSlugs)
	if err != nil {
		return err
	}
	if err := s.providers.ReplaceServices(ctx, providerID, serviceIDs); err != nil {
		return fmt.Errorf("replace service associations: %w", err)
	}
	return nil
}

// SyncLocations replaces only the coverage-area association set.
func (s *Synchronizer) SyncLocations(ctx context.Context, providerID domain.ProviderID, areaLabels []string) error {
	locationIDs, err := s.resolveLocations(ctx, providerID, areaLabels)
	if err != nil {
		return err
	}
	if err := s.providers.ReplaceLocations(ctx, providerID, locationIDs); err != nil {
		return fmt.Errorf("replace location associations: %w", err)
	}
	return nil
}

func (s *Synchronizer) resolveServices(ctx context.Context, providerID domain.ProviderID, slugs []string) ([]domain.ServiceID, error) {
	deduped := pstrings.DedupeAndTrimLower(slugs)
	ids := make([]domain.ServiceID, 0, len(deduped))
	dropped := 0
	for _, slug := range deduped {
		svc, err := s.catalog.ServiceBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				dropped++
				s.logger.WarnContext(ctx, "dropping unresolved service slug",
					"provider_id", providerID.String(), "slug", slug)
				continue
			}
			return nil, fmt.Errorf("resolve service slug %q: %w", slug, err)
		}
		ids = append(ids, svc.ID)
	}
	s.metrics.RecordUnresolved("service", dropped)
	return ids, nil
}

func (s *Synchronizer) resolveLocations(ctx context.Context, providerID domain.ProviderID, labels []string) ([]domain.LocationID, error) {
	deduped := pstrings.DedupeAndTrim(labels)
	ids := make([]domain.LocationID, 0, len(deduped))
	dropped := 0
	for _, label := range deduped {
		loc, err := s.catalog.LocationByLabel(ctx, label)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				dropped++
				s.logger.WarnContext(ctx, "dropping unresolved area label",
					"provider_id", providerID.String(), "label", label)
				continue
			}
			return nil, fmt.Errorf("resolve area label %q: %w", label, err)
		}
		ids = append(ids, loc.ID)
	}
	s.metrics.RecordUnresolved("location", dropped)
	return ids, nil
}
