package handler

//go:generate mockgen -source=handler.go -destination=mocks/provider-mocks.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"serviapp/internal/provider/handler/mocks"
	"serviapp/internal/provider/models"
	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger, nil)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestCreate_Success() {
	providerID := domain.NewProviderID()
	s.service.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(&models.Provider{ID: providerID, Name: "Juan Pérez", Slug: "juan-perez"}, nil)

	rec := s.request(http.MethodPost, "/admin/providers", models.CreateRequest{
		Name:         "Juan Pérez",
		Phone:        "0991234567",
		ServiceSlugs: []string{"plomeria"},
	})

	assert.Equal(s.T(), http.StatusCreated, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "juan-perez")
}

func (s *HandlerSuite) TestCreate_InvalidJSON() {
	req := httptest.NewRequest(http.MethodPost, "/admin/providers", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCreate_DuplicateMapsTo409() {
	s.service.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeDuplicate, "a provider with this phone or slug already exists"))

	rec := s.request(http.MethodPost, "/admin/providers", models.CreateRequest{Name: "Juan"})

	assert.Equal(s.T(), http.StatusConflict, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "duplicate")
}

func (s *HandlerSuite) TestGet_InvalidID() {
	rec := s.request(http.MethodGet, "/admin/providers/not-a-uuid", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGet_NotFound() {
	providerID := domain.NewProviderID()
	s.service.EXPECT().
		Get(gomock.Any(), providerID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "provider not found"))

	rec := s.request(http.MethodGet, "/admin/providers/"+providerID.String(), nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestList_EmptyIsAnArray() {
	s.service.EXPECT().List(gomock.Any()).Return(nil, nil)

	rec := s.request(http.MethodGet, "/admin/providers", nil)
	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.JSONEq(s.T(), `{"providers":[]}`, rec.Body.String())
}

func (s *HandlerSuite) TestUpdate_PassesPartialPayload() {
	providerID := domain.NewProviderID()
	s.service.EXPECT().
		Update(gomock.Any(), providerID, gomock.Any()).
		DoAndReturn(func(_ any, _ domain.ProviderID, req *models.UpdateRequest) (*models.Provider, error) {
			assert.NotNil(s.T(), req.Verified)
			assert.True(s.T(), *req.Verified)
			assert.Nil(s.T(), req.ServiceSlugs, "omitted list stays nil")
			return &models.Provider{ID: providerID, Verified: true}, nil
		})

	rec := s.request(http.MethodPatch, "/admin/providers/"+providerID.String(),
		map[string]any{"verified": true})

	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestListPhotos() {
	providerID := domain.NewProviderID()
	s.service.EXPECT().
		ListCandidatePhotos(gomock.Any(), providerID).
		Return([]models.CandidatePhoto{
			{Path: "reg1/profile.jpg", Kind: "profile", Selectable: true},
			{Path: "reg1/document.jpg", Kind: "document", Selectable: false},
		}, nil)

	rec := s.request(http.MethodGet, "/admin/providers/"+providerID.String()+"/photos", nil)

	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "reg1/profile.jpg")
	assert.Contains(s.T(), rec.Body.String(), `"selectable":false`)
}

func (s *HandlerSuite) TestSelectPhoto_Success() {
	providerID := domain.NewProviderID()
	s.service.EXPECT().
		SelectCardPhoto(gomock.Any(), providerID, "reg1/profile.jpg").
		Return(nil)

	rec := s.request(http.MethodPost, "/admin/providers/"+providerID.String()+"/photos/select",
		map[string]string{"path": "reg1/profile.jpg"})

	assert.Equal(s.T(), http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestSelectPhoto_DocumentGuard() {
	providerID := domain.NewProviderID()
	s.service.EXPECT().
		SelectCardPhoto(gomock.Any(), providerID, "reg1/document.jpg").
		Return(dErrors.New(dErrors.CodeInvalidInput, "identity document photos cannot be used as the card photo"))

	rec := s.request(http.MethodPost, "/admin/providers/"+providerID.String()+"/photos/select",
		map[string]string{"path": "reg1/document.jpg"})

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "identity document")
}
