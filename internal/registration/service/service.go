// Package service implements public registration intake and the moderation
// read side.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"serviapp/internal/identity"
	"serviapp/internal/registration/metrics"
	"serviapp/internal/registration/models"
	"serviapp/internal/registration/store"
	"serviapp/internal/upload"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
	"serviapp/pkg/email"
	"serviapp/pkg/platform/audit"
	"serviapp/pkg/platform/audit/publisher"
	"serviapp/pkg/platform/middleware/request"
	"serviapp/pkg/platform/sentinel"
)

// Service handles intake, photo attachment and the moderation queue.
type Service struct {
	store    store.Store
	blobs    upload.BlobStore
	audit    *publisher.Publisher
	notifier email.Sender
	notifyTo string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics attaches registration metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNotifier enables the best-effort email notification on new
// submissions, sent to the moderation inbox.
func WithNotifier(sender email.Sender, to string) Option {
	return func(s *Service) {
		s.notifier = sender
		s.notifyTo = to
	}
}

func New(st store.Store, blobs upload.BlobStore, auditPub *publisher.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  st,
		blobs:  blobs,
		audit:  auditPub,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and persists a new pending registration. The phone is
// canonicalized first; a non-rejected registration with the same phone
// refuses the submission. The unique index backs the guard up under
// concurrent submissions.
func (s *Service) Submit(ctx context.Context, req *models.SubmitRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		s.metrics.IncrementSubmission("invalid")
		return nil, err
	}

	phone := identity.NormalizePhone(req.Phone)

	exists, err := s.store.ExistsActiveByPhone(ctx, phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check for existing registration")
	}
	if exists {
		s.metrics.IncrementSubmission("duplicate")
		return nil, dErrors.New(dErrors.CodeDuplicate, "a registration with this phone already exists; contact support to update it")
	}

	now := time.Now().UTC()
	reg := &models.Registration{
		ID:            domain.NewRegistrationID(),
		Name:          req.Name,
		Phone:         phone,
		Email:         req.Email,
		NationalID:    req.NationalID,
		Services:      req.Services,
		Areas:         req.Areas,
		SpeaksEnglish: req.SpeaksEnglish,
		Message:       req.Message,
		References:    req.References,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent submission with the same phone won the insert.
			s.metrics.IncrementSubmission("duplicate")
			return nil, dErrors.New(dErrors.CodeDuplicate, "a registration with this phone already exists; contact support to update it")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save registration")
	}

	s.metrics.IncrementSubmission("accepted")
	s.emit(ctx, audit.EventRegistrationSubmitted, reg.ID.String())
	s.notify(ctx, reg)
	s.logger.InfoContext(ctx, "registration submitted",
		"registration_id", reg.ID.String(),
		"request_id", request.GetRequestID(ctx))
	return reg, nil
}

// AttachPhoto validates and stores an uploaded photo, then records its path
// on the registration. Uploads may arrive after the row exists.
func (s *Service) AttachPhoto(ctx context.Context, regID domain.RegistrationID, kind upload.PhotoKind, contentType string, size int64, r io.Reader) (string, error) {
	if !kind.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown photo kind")
	}
	if err := upload.Validate(contentType, size); err != nil {
		s.metrics.IncrementPhotoUpload(string(kind), "rejected")
		return "", err
	}

	path := upload.ObjectPath(regID.String(), kind, upload.ExtensionFor(contentType))
	if err := s.blobs.Put(ctx, path, r); err != nil {
		s.metrics.IncrementPhotoUpload(string(kind), "failed")
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store photo")
	}

	if err := s.store.SetPhotoPath(ctx, regID, kind, path); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record photo path")
	}

	s.metrics.IncrementPhotoUpload(string(kind), "accepted")
	return path, nil
}

// Get returns one registration for moderation screens.
func (s *Service) Get(ctx context.Context, regID domain.RegistrationID) (*models.Registration, error) {
	reg, err := s.store.Get(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load registration")
	}
	return reg, nil
}

// ListByStatus feeds the moderation queue.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]*models.Registration, error) {
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown status")
	}
	regs, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list registrations")
	}
	return regs, nil
}

// notify emails the moderation inbox about a new submission. Failures are
// logged and swallowed.
func (s *Service) notify(ctx context.Context, reg *models.Registration) {
	if s.notifier == nil || s.notifyTo == "" {
		return
	}
	subject := "Nueva solicitud de registro: " + reg.Name
	body := fmt.Sprintf("Nombre: %s\nTeléfono: %s\nServicios: %v\nZonas: %v\n",
		reg.Name, reg.Phone, reg.Services, reg.Areas)
	if err := s.notifier.Send(s.notifyTo, subject, body); err != nil {
		s.logger.WarnContext(ctx, "failed to send submission notification",
			"registration_id", reg.ID.String(), "error", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, regID string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:      time.Now(),
		Action:         string(action),
		RegistrationID: regID,
		RequestID:      request.GetRequestID(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action, "error", err)
	}
}
