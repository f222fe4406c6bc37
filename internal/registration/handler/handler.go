// Package handler exposes the public intake endpoint and the moderation read
// side for registrations.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"serviapp/internal/registration/models"
	"serviapp/internal/upload"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
	"serviapp/pkg/platform/httputil"
	"serviapp/pkg/platform/middleware/request"
)

// maxMultipartMemory bounds in-memory buffering while parsing uploads; the
// per-file ceiling is enforced separately by the upload validator.
const maxMultipartMemory = 12 << 20

// Service is the registration surface the handler needs.
type Service interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.Registration, error)
	AttachPhoto(ctx context.Context, regID domain.RegistrationID, kind upload.PhotoKind, contentType string, size int64, r io.Reader) (string, error)
	Get(ctx context.Context, regID domain.RegistrationID) (*models.Registration, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Registration, error)
}

// Handler serves registration intake and the moderation queue. The intake
// middleware (rate limiting) and moderator middleware are injected so tests
// can run without them.
type Handler struct {
	service     Service
	logger      *slog.Logger
	intakeMW    func(http.Handler) http.Handler
	moderatorMW func(http.Handler) http.Handler
}

func New(service Service, logger *slog.Logger, intakeMW, moderatorMW func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		intakeMW:    intakeMW,
		moderatorMW: moderatorMW,
	}
}

// Register mounts the registration routes. Paths are registered in full so
// the moderation transition routes can share the /registrations prefix.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Use(request.Timeout(30 * time.Second))
		if h.intakeMW != nil {
			public.Use(h.intakeMW)
		}
		public.Post("/registrations", h.handleSubmit)
		public.Post("/registrations/{registrationID}/photos", h.handleAttachPhotos)
	})

	r.Group(func(moderation chi.Router) {
		moderation.Use(request.Timeout(30 * time.Second))
		if h.moderatorMW != nil {
			moderation.Use(h.moderatorMW)
		}
		moderation.Get("/registrations", h.handleList)
		moderation.Get("/registrations/{registrationID}", h.handleGet)
	})
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

var photoFormFields = map[string]upload.PhotoKind{
	"profile_photo":  upload.KindProfile,
	"document_photo": upload.KindDocument,
}

// handleSubmit accepts either a JSON body or a multipart form with a "data"
// JSON part plus optional "profile_photo" and "document_photo" files.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.handleSubmitMultipart(w, r)
		return
	}

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reg, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, "failed to submit registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		ID:     reg.ID.String(),
		Status: string(reg.Status),
	})
}

func (h *Handler) handleSubmitMultipart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	var req models.SubmitRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart form needs a JSON data field"))
		return
	}

	// Validate the photos before creating any state so a bad file rejects
	// the whole submission.
	photos := map[upload.PhotoKind]*multipart.FileHeader{}
	for field, kind := range photoFormFields {
		header := formFile(r, field)
		if header == nil {
			continue
		}
		if err := upload.Validate(header.Header.Get("Content-Type"), header.Size); err != nil {
			h.writeServiceError(w, r, "photo failed validation", err)
			return
		}
		photos[kind] = header
	}

	reg, err := h.service.Submit(ctx, &req)
	if err != nil {
		h.writeServiceError(w, r, "failed to submit registration", err)
		return
	}

	for kind, header := range photos {
		file, err := header.Open()
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to open uploaded photo",
				"registration_id", reg.ID.String(), "kind", kind, "error", err)
			continue
		}
		_, err = h.service.AttachPhoto(ctx, reg.ID, kind,
			header.Header.Get("Content-Type"), header.Size, file)
		file.Close()
		if err != nil {
			// The registration stands; the photo can be re-uploaded via
			// POST /registrations/{id}/photos.
			h.logger.WarnContext(ctx, "failed to attach photo",
				"registration_id", reg.ID.String(), "kind", kind, "error", err)
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		ID:     reg.ID.String(),
		Status: string(reg.Status),
	})
}

// handleAttachPhotos accepts a multipart form with "profile_photo" and/or
// "document_photo" files for an existing registration, for clients that
// submit first and upload (or replace) photos out of band.
func (h *Handler) handleAttachPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	paths := map[string]string{}
	for field, kind := range photoFormFields {
		header := formFile(r, field)
		if header == nil {
			continue
		}
		if err := upload.Validate(header.Header.Get("Content-Type"), header.Size); err != nil {
			h.writeServiceError(w, r, "photo failed validation", err)
			return
		}
		file, err := header.Open()
		if err != nil {
			h.writeServiceError(w, r, "failed to open uploaded photo",
				dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable photo upload"))
			return
		}
		path, err := h.service.AttachPhoto(ctx, regID, kind,
			header.Header.Get("Content-Type"), header.Size, file)
		file.Close()
		if err != nil {
			h.writeServiceError(w, r, "failed to attach photo", err)
			return
		}
		paths[string(kind)] = path
	}
	if len(paths) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart form has no photo files"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"photos": paths})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPending
	}

	regs, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeServiceError(w, r, "failed to list registrations", err)
		return
	}
	if regs == nil {
		regs = []*models.Registration{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.Get(r.Context(), regID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	return headers[0]
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeDuplicate, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	}
}
