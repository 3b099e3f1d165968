package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"odontoforense/internal/identity/handler/mocks"
	"odontoforense/internal/identity/models"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger, nil, nil, nil), mockService
}

func sampleProfile(role id.Role) models.Profile {
	return models.Profile{
		ID:    id.UserID(uuid.New()),
		Name:  "Helena Prado",
		Email: "helena.prado@pericia.gov.br",
		Role:  role,
	}
}

func TestHandleLogin(t *testing.T) {
	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		h, svc := newTestHandler(t)
		profile := sampleProfile(id.RolePerito)
		result := &models.LoginResult{
			AccessToken: "signed.jwt.token",
			TokenType:   "Bearer",
			ExpiresAt:   time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC),
			User:        profile,
		}
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).Return(result, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			models.LoginRequest{Email: profile.Email, Password: "senha-secreta"})
		w := httptest.NewRecorder()
		h.handleLogin(w, req)

		testutil.AssertStatusOK(t, w)
		resp := testutil.UnmarshalResponse[models.LoginResult](t, w)
		assert.Equal(t, "signed.jwt.token", resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, profile.Email, resp.User.Email)
	})

	t.Run("rejected credentials map to 401", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			models.LoginRequest{Email: "helena.prado@pericia.gov.br", Password: "wrong"})
		w := httptest.NewRecorder()
		h.handleLogin(w, req)

		testutil.AssertStatusAndError(t, w, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		h, _ := newTestHandler(t)

		req := testutil.NewRequestWithBody(t, http.MethodPost, "/auth/login", "{not json")
		w := httptest.NewRecorder()
		h.handleLogin(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleMe(t *testing.T) {
	t.Run("returns the authenticated profile", func(t *testing.T) {
		h, svc := newTestHandler(t)
		profile := sampleProfile(id.RoleAssistente)
		svc.EXPECT().Me(gomock.Any()).Return(profile, nil)

		req := testutil.NewRequest(t, http.MethodGet, "/auth/me")
		req = testutil.WithActor(req, profile.ID, profile.Role)
		w := httptest.NewRecorder()
		h.handleMe(w, req)

		testutil.AssertStatusOK(t, w)
		resp := testutil.UnmarshalResponse[models.Profile](t, w)
		assert.Equal(t, profile.ID, resp.ID)
		assert.Equal(t, "assistente", resp.Role.String())
	})

	t.Run("missing actor maps to 401", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.EXPECT().Me(gomock.Any()).
			Return(models.Profile{}, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor"))

		req := testutil.NewRequest(t, http.MethodGet, "/auth/me")
		w := httptest.NewRecorder()
		h.handleMe(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	h, svc := newTestHandler(t)
	svc.EXPECT().Logout(gomock.Any()).Return(nil)

	req := testutil.NewRequest(t, http.MethodPost, "/auth/logout")
	req = testutil.WithActor(req, id.UserID(uuid.New()), id.RolePerito)
	w := httptest.NewRecorder()
	h.handleLogout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandleSearchEligible(t *testing.T) {
	t.Run("expert can list team candidates", func(t *testing.T) {
		h, svc := newTestHandler(t)
		candidates := []models.Profile{sampleProfile(id.RolePerito), sampleProfile(id.RoleAssistente)}
		svc.EXPECT().SearchEligible(gomock.Any(), "prado").Return(candidates, nil)

		req := testutil.NewRequest(t, http.MethodGet, "/users/eligible?query=prado")
		req = testutil.WithActor(req, id.UserID(uuid.New()), id.RolePerito)
		w := httptest.NewRecorder()
		h.handleSearchEligible(w, req)

		testutil.AssertStatusOK(t, w)
		resp := testutil.UnmarshalResponse[[]models.Profile](t, w)
		assert.Len(t, *resp, 2)
	})

	t.Run("assistant is refused before the service is asked", func(t *testing.T) {
		h, _ := newTestHandler(t)

		req := testutil.NewRequest(t, http.MethodGet, "/users/eligible")
		req = testutil.WithActor(req, id.UserID(uuid.New()), id.RoleAssistente)
		w := httptest.NewRecorder()
		h.handleSearchEligible(w, req)

		testutil.AssertStatusAndError(t, w, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
}
