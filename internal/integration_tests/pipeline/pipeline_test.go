// Package pipeline exercises the full registration lifecycle through the HTTP
// router with in-memory stores: submit, moderate, approve, provider listing.
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviapp/internal/approval"
	approvalhandler "serviapp/internal/approval/handler"
	"serviapp/internal/catalog"
	"serviapp/internal/jwtauth"
	providerhandler "serviapp/internal/provider/handler"
	providermodels "serviapp/internal/provider/models"
	providerservice "serviapp/internal/provider/service"
	providerstore "serviapp/internal/provider/store"
	ratelimitmw "serviapp/internal/ratelimit/middleware"
	ratelimitmodels "serviapp/internal/ratelimit/models"
	ratelimitservice "serviapp/internal/ratelimit/service"
	"serviapp/internal/ratelimit/store/bucket"
	registrationhandler "serviapp/internal/registration/handler"
	registrationmodels "serviapp/internal/registration/models"
	registrationservice "serviapp/internal/registration/service"
	registrationstore "serviapp/internal/registration/store"
	"serviapp/internal/upload"
	"serviapp/pkg/platform/audit/publisher"
	auditmemory "serviapp/pkg/platform/audit/store/memory"
	authmw "serviapp/pkg/platform/middleware/auth"
	request "serviapp/pkg/platform/middleware/request"
)

type stack struct {
	router *chi.Mux
	jwt    *jwtauth.Service
	audit  *auditmemory.InMemoryStore
}

func newStack(t *testing.T, intakeLimit int) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	regStore := registrationstore.NewInMemoryStore()
	provStore := providerstore.NewInMemoryStore()
	catStore := catalog.NewInMemoryStore()
	catalog.SeedCuencaCatalog(catStore)
	auditStore := auditmemory.NewInMemoryStore()
	auditPub := publisher.NewPublisher(auditStore)
	blobs := upload.NewInMemoryStore()

	limiter := ratelimitservice.New(bucket.NewInMemoryBucketStore(), ratelimitmodels.Policy{
		MaxRequests: intakeLimit,
		Window:      time.Minute,
	}, logger)
	intakeMW := ratelimitmw.New(limiter, logger)

	jwtSvc := jwtauth.NewService("integration-test-key", "serviapp")
	moderatorMW := authmw.RequireModerator(jwtSvc, logger)
	adminMW := authmw.RequireAdmin(jwtSvc, logger)

	regSvc := registrationservice.New(regStore, blobs, auditPub, logger)
	sync := providerservice.NewSynchronizer(provStore, catStore, logger, nil)
	provSvc := providerservice.New(provStore, regStore, sync, auditPub, logger)
	approvals := approval.New(regStore, provStore, sync, approval.MemoryTxRunner{}, auditPub, logger)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	registrationhandler.New(regSvc, logger, intakeMW.LimitIntake, moderatorMW).Register(r)
	approvalhandler.New(approvals, logger, moderatorMW).Register(r)
	providerhandler.New(provSvc, logger, adminMW).Register(r)

	return &stack{router: r, jwt: jwtSvc, audit: auditStore}
}

func (s *stack) token(t *testing.T, role string) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(uuid.New(), role, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *stack) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func submitBody(phone string) registrationmodels.SubmitRequest {
	return registrationmodels.SubmitRequest{
		Name:          "Juan Pérez",
		Phone:         phone,
		Email:         "juan@example.com",
		Services:      []string{"plomeria", "electricidad"},
		Areas:         []string{"El Centro"},
		SpeaksEnglish: true,
		Message:       "Quince años de experiencia",
	}
}

func TestPipeline_SubmitToApprovedProvider(t *testing.T) {
	s := newStack(t, 10)
	moderator := s.token(t, authmw.RoleModerator)
	admin := s.token(t, authmw.RoleAdmin)

	// Public intake.
	rr := s.do(t, http.MethodPost, "/registrations", "", submitBody("099 876 5432"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var submitted struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submitted))
	assert.Equal(t, "pending", submitted.Status)

	// Moderation requires a token.
	rr = s.do(t, http.MethodGet, "/registrations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/registrations", moderator, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var listed struct {
		Registrations []*registrationmodels.Registration `json:"registrations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed.Registrations, 1)
	assert.Equal(t, "+593998765432", listed.Registrations[0].Phone)

	// Contact, then approve.
	rr = s.do(t, http.MethodPost, "/registrations/"+submitted.ID+"/status", moderator,
		map[string]string{"status": "contacted"})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/registrations/"+submitted.ID+"/approve", moderator, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var approved struct {
		ProviderID string `json:"provider_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &approved))
	require.NotEmpty(t, approved.ProviderID)

	// A moderator token is not enough for the admin surface.
	rr = s.do(t, http.MethodGet, "/admin/providers", moderator, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodGet, "/admin/providers/"+approved.ProviderID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var provider providermodels.Provider
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &provider))
	assert.Equal(t, "juan-perez", provider.Slug)
	assert.Equal(t, "+593998765432", provider.Phone)
	assert.Equal(t, providermodels.StatusActive, provider.Status)
	assert.Equal(t, providermodels.DefaultRating, provider.Rating)

	// Approving twice conflicts.
	rr = s.do(t, http.MethodPost, "/registrations/"+submitted.ID+"/approve", moderator, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// The trail covers the whole lifecycle.
	var actions []string
	for _, event := range s.audit.Events() {
		actions = append(actions, event.Action)
	}
	assert.Contains(t, actions, "registration_submitted")
	assert.Contains(t, actions, "registration_contacted")
	assert.Contains(t, actions, "registration_approved")
	assert.Contains(t, actions, "provider_created")
}

func TestPipeline_DuplicatePhoneRefusedUntilRejection(t *testing.T) {
	s := newStack(t, 10)
	moderator := s.token(t, authmw.RoleModerator)

	rr := s.do(t, http.MethodPost, "/registrations", "", submitBody("0998765432"))
	require.Equal(t, http.StatusCreated, rr.Code)
	var submitted struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submitted))

	// Same phone in a different format is still the same applicant.
	rr = s.do(t, http.MethodPost, "/registrations", "", submitBody("+593 99 876 5432"))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodPost, "/registrations/"+submitted.ID+"/status", moderator,
		map[string]string{"status": "rejected", "reason": "incomplete references"})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, http.MethodPost, "/registrations", "", submitBody("0998765432"))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestPipeline_IntakeRateLimited(t *testing.T) {
	s := newStack(t, 3)

	for i := 0; i < 3; i++ {
		rr := s.do(t, http.MethodPost, "/registrations", "",
			submitBody(fmt.Sprintf("09987654%02d", i)))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := s.do(t, http.MethodPost, "/registrations", "", submitBody("0998765499"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}
