// Package handler exposes the moderator endpoints that advance a
// registration's lifecycle.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	regmodels "serviapp/internal/registration/models"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
	"serviapp/pkg/platform/httputil"
	"serviapp/pkg/platform/middleware/request"
)

// Service is the approval surface the handler needs.
type Service interface {
	Approve(ctx context.Context, regID domain.RegistrationID) (domain.ProviderID, error)
	SetStatus(ctx context.Context, regID domain.RegistrationID, next regmodels.Status, reason string) error
}

// Handler serves the moderator status and approve endpoints. Moderator
// authentication is applied by the middleware passed at construction.
type Handler struct {
	service     Service
	logger      *slog.Logger
	moderatorMW func(http.Handler) http.Handler
}

func New(service Service, logger *slog.Logger, moderatorMW func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		moderatorMW: moderatorMW,
	}
}

// Register mounts the moderation routes. Paths are registered in full so they
// can share the /registrations prefix with the intake handler.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(moderation chi.Router) {
		moderation.Use(request.Timeout(30 * time.Second))
		moderation.Use(request.ContentTypeJSON)
		if h.moderatorMW != nil {
			moderation.Use(h.moderatorMW)
		}
		moderation.Post("/registrations/{registrationID}/status", h.handleSetStatus)
		moderation.Post("/registrations/{registrationID}/approve", h.handleApprove)
	})
}

type setStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.SetStatus(r.Context(), regID, regmodels.Status(req.Status), req.Reason); err != nil {
		h.writeServiceError(w, r, "failed to set registration status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	providerID, err := h.service.Approve(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to approve registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"provider_id": providerID.String(),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeNotFound, dErrors.CodeInvalidTransition, dErrors.CodeDuplicate:
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	}
}
