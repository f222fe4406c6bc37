// Package handler exposes the admin provider endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"serviapp/internal/provider/models"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
	"serviapp/pkg/platform/httputil"
	"serviapp/pkg/platform/middleware/request"
)

// Service is the provider application surface the handler needs.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.Provider, error)
	Update(ctx context.Context, providerID domain.ProviderID, req *models.UpdateRequest) (*models.Provider, error)
	Get(ctx context.Context, providerID domain.ProviderID) (*models.Provider, error)
	List(ctx context.Context) ([]*models.Provider, error)
	ListCandidatePhotos(ctx context.Context, providerID domain.ProviderID) ([]models.CandidatePhoto, error)
	SelectCardPhoto(ctx context.Context, providerID domain.ProviderID, path string) error
}

// Handler serves /admin/providers. Admin authentication is applied by the
// middleware passed at construction.
type Handler struct {
	service Service
	logger  *slog.Logger
	adminMW func(http.Handler) http.Handler
}

func New(service Service, logger *slog.Logger, adminMW func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		adminMW: adminMW,
	}
}

// Register mounts the admin provider routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(request.Timeout(30 * time.Second))
	router.Use(request.ContentTypeJSON)
	if h.adminMW != nil {
		router.Use(h.adminMW)
	}
	router.Get("/", h.handleList)
	router.Post("/", h.handleCreate)
	router.Get("/{providerID}", h.handleGet)
	router.Patch("/{providerID}", h.handleUpdate)
	router.Get("/{providerID}/photos", h.handleListPhotos)
	router.Post("/{providerID}/photos/select", h.handleSelectPhoto)

	r.Mount("/admin/providers", router)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list providers", err)
		return
	}
	if providers == nil {
		providers = []*models.Provider{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := h.service.Create(ctx, &req)
	if err != nil {
		h.writeServiceError(w, r, "failed to create provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), providerID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := h.service.Update(r.Context(), providerID, &req)
	if err != nil {
		h.writeServiceError(w, r, "failed to update provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	photos, err := h.service.ListCandidatePhotos(r.Context(), providerID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list candidate photos", err)
		return
	}
	if photos == nil {
		photos = []models.CandidatePhoto{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

type selectPhotoRequest struct {
	Path string `json:"path"`
}

func (h *Handler) handleSelectPhoto(w http.ResponseWriter, r *http.Request) {
	providerID, err := domain.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req selectPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.SelectCardPhoto(r.Context(), providerID, req.Path); err != nil {
		h.writeServiceError(w, r, "failed to select card photo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs unexpected failures and maps coded errors onto the
// response envelope. Client-caused errors are logged at warn.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeDuplicate, dErrors.CodeNotFound, dErrors.CodeInvalidTransition:
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	}
}
