// Package approval drives the registration lifecycle. Moderators move a
// registration from pending through contacted to approved or rejected;
// approval also creates or refreshes the public provider profile and syncs
// its catalog associations in one transaction.
package approval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"serviapp/internal/identity"
	providermodels "serviapp/internal/provider/models"
	providerservice "serviapp/internal/provider/service"
	providerstore "serviapp/internal/provider/store"
	regmetrics "serviapp/internal/registration/metrics"
	regmodels "serviapp/internal/registration/models"
	regstore "serviapp/internal/registration/store"
	"serviapp/internal/upload"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
	"serviapp/pkg/platform/audit"
	"serviapp/pkg/platform/audit/publisher"
	"serviapp/pkg/platform/middleware/auth"
	"serviapp/pkg/platform/middleware/request"
	"serviapp/pkg/platform/sentinel"
)

// TxRunner executes fn atomically. The postgres implementation opens a
// transaction and threads it through the context so every store call inside
// fn joins it; the memory implementation just calls fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemoryTxRunner runs fn without transactional guarantees. It backs the
// memory wiring and tests, where the stores are process-local anyway.
type MemoryTxRunner struct{}

func (MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Orchestrator applies moderator decisions to registrations and providers.
type Orchestrator struct {
	registrations regstore.Store
	providers     providerstore.Store
	sync          *providerservice.Synchronizer
	tx            TxRunner
	audit         *publisher.Publisher
	logger        *slog.Logger
	metrics       *regmetrics.Metrics
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches registration metrics.
func WithMetrics(m *regmetrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func New(registrations regstore.Store, providers providerstore.Store, sync *providerservice.Synchronizer, tx TxRunner, auditPub *publisher.Publisher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registrations: registrations,
		providers:     providers,
		sync:          sync,
		tx:            tx,
		audit:         auditPub,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Approve promotes a registration to approved and creates or updates the
// provider profile for its phone. Provider write, association sync and the
// status advance run in one transaction; a concurrent approval loses on the
// conditional status update and rolls everything back.
func (o *Orchestrator) Approve(ctx context.Context, regID domain.RegistrationID) (domain.ProviderID, error) {
	reg, err := o.loadRegistration(ctx, regID)
	if err != nil {
		return domain.ProviderID{}, err
	}
	if !reg.Status.CanTransitionTo(regmodels.StatusApproved) {
		return domain.ProviderID{}, transitionError(reg.Status, regmodels.StatusApproved)
	}

	var providerID domain.ProviderID
	var created bool
	err = o.tx.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		providerID, created, txErr = o.upsertProvider(ctx, reg)
		if txErr != nil {
			return txErr
		}

		if txErr := o.sync.Sync(ctx, providerID, reg.Services, reg.Areas); txErr != nil {
			return dErrors.Wrap(txErr, dErrors.CodeUnavailable, "failed to sync provider associations")
		}

		txErr = o.registrations.UpdateStatus(ctx, regID,
			[]regmodels.Status{regmodels.StatusPending, regmodels.StatusContacted},
			regmodels.StatusApproved)
		switch {
		case errors.Is(txErr, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "registration not found")
		case errors.Is(txErr, sentinel.ErrInvalidState):
			// A concurrent moderator finished first.
			return transitionError(reg.Status, regmodels.StatusApproved)
		case txErr != nil:
			return dErrors.Wrap(txErr, dErrors.CodeUnavailable, "failed to update registration status")
		}
		return nil
	})
	if err != nil {
		return domain.ProviderID{}, err
	}

	o.metrics.IncrementTransition(string(regmodels.StatusApproved))
	o.emit(ctx, audit.EventRegistrationApproved, regID.String(), providerID.String(), "")
	if created {
		o.emit(ctx, audit.EventProviderCreated, regID.String(), providerID.String(), "")
	} else {
		o.emit(ctx, audit.EventProviderUpdated, regID.String(), providerID.String(), "")
	}
	o.logger.InfoContext(ctx, "registration approved",
		"registration_id", regID.String(),
		"provider_id", providerID.String(),
		"provider_created", created,
		"request_id", request.GetRequestID(ctx))
	return providerID, nil
}

// SetStatus handles the contacted/rejected moderator path. It never touches
// the provider.
func (o *Orchestrator) SetStatus(ctx context.Context, regID domain.RegistrationID, next regmodels.Status, reason string) error {
	if next != regmodels.StatusContacted && next != regmodels.StatusRejected {
		return dErrors.New(dErrors.CodeInvalidInput, "status must be contacted or rejected")
	}

	reg, err := o.loadRegistration(ctx, regID)
	if err != nil {
		return err
	}
	if !reg.Status.CanTransitionTo(next) {
		return transitionError(reg.Status, next)
	}

	err = o.registrations.UpdateStatus(ctx, regID, expectedPriors(next), next)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return transitionError(reg.Status, next)
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update registration status")
	}

	o.metrics.IncrementTransition(string(next))
	action := audit.EventRegistrationContacted
	if next == regmodels.StatusRejected {
		action = audit.EventRegistrationRejected
	}
	o.emit(ctx, action, regID.String(), "", reason)
	return nil
}

func (o *Orchestrator) loadRegistration(ctx context.Context, regID domain.RegistrationID) (*regmodels.Registration, error) {
	reg, err := o.registrations.Get(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load registration")
	}
	return reg, nil
}

// upsertProvider finds the provider by canonical phone and refreshes its
// presentation fields, or creates a fresh profile when none exists.
func (o *Orchestrator) upsertProvider(ctx context.Context, reg *regmodels.Registration) (domain.ProviderID, bool, error) {
	existing, err := o.providers.GetByPhone(ctx, reg.Phone)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return domain.ProviderID{}, false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to look up provider")
	}

	cardPhoto := ""
	if reg.ProfilePhotoPath != "" && upload.IsSelectableCardPhoto(reg.ProfilePhotoPath) {
		cardPhoto = reg.ProfilePhotoPath
	}

	if existing != nil {
		existing.Name = reg.Name
		existing.Email = reg.Email
		existing.SpeaksEnglish = reg.SpeaksEnglish
		if cardPhoto != "" {
			existing.CardPhotoPath = cardPhoto
		}
		existing.Status = providermodels.StatusActive
		if err := o.providers.Update(ctx, existing); err != nil {
			return domain.ProviderID{}, false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update provider")
		}
		return existing.ID, false, nil
	}

	providerID := domain.NewProviderID()
	slug, err := o.uniqueSlug(ctx, reg.Name, providerID)
	if err != nil {
		return domain.ProviderID{}, false, err
	}

	p := &providermodels.Provider{
		ID:            providerID,
		Name:          reg.Name,
		Slug:          slug,
		Phone:         reg.Phone,
		Email:         reg.Email,
		Rating:        providermodels.DefaultRating,
		ReviewCount:   providermodels.DefaultReviewCount,
		SpeaksEnglish: reg.SpeaksEnglish,
		CardPhotoPath: cardPhoto,
		Status:        providermodels.StatusActive,
	}
	if err := o.providers.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.ProviderID{}, false, dErrors.New(dErrors.CodeDuplicate, "a provider with this phone or slug already exists")
		}
		return domain.ProviderID{}, false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create provider")
	}
	return providerID, true, nil
}

func (o *Orchestrator) uniqueSlug(ctx context.Context, name string, providerID domain.ProviderID) (string, error) {
	slug := identity.Slugify(name)
	if slug == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "name does not produce a usable slug")
	}
	taken, err := o.providers.SlugExists(ctx, slug)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check slug")
	}
	if !taken {
		return slug, nil
	}
	return identity.SlugWithSuffix(slug, providerID.UUID()), nil
}

// expectedPriors lists the statuses a row may hold for the transition to be
// legal, mirroring CanTransitionTo at the storage layer.
func expectedPriors(next regmodels.Status) []regmodels.Status {
	switch next {
	case regmodels.StatusContacted:
		return []regmodels.Status{regmodels.StatusPending}
	default:
		return []regmodels.Status{regmodels.StatusPending, regmodels.StatusContacted}
	}
}

func transitionError(current, requested regmodels.Status) error {
	return dErrors.Newf(dErrors.CodeInvalidTransition,
		"cannot transition registration from %s to %s", current, requested)
}

func (o *Orchestrator) emit(ctx context.Context, action audit.AuditEvent, regID, providerID, reason string) {
	if o.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:      time.Now(),
		Action:         string(action),
		RegistrationID: regID,
		ProviderID:     providerID,
		ActorID:        auth.GetModeratorID(ctx),
		Reason:         reason,
		RequestID:      request.GetRequestID(ctx),
	}
	if err := o.audit.Emit(ctx, event); err != nil {
		o.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action, "error", err)
	}
}
