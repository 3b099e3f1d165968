package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
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
	"go.uber.org/mock/gomock"

	"odontoforense/internal/odontogram/handler/mocks"
	"odontoforense/internal/odontogram/models"
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

// withURLParams attaches chi route parameters, standing in for the router.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleChart(victimID id.VictimID) *models.Odontogram {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	o, err := models.NewChart(
		id.OdontogramID(uuid.New()), victimID, id.CaseID(uuid.New()),
		models.TypePostMortem, now, nil, now)
	if err != nil {
		panic(err)
	}
	return o
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"].(string)
}

func TestHandleCreate(t *testing.T) {
	victimID := id.VictimID(uuid.New())

	t.Run("created with the full 32-position chart", func(t *testing.T) {
		h, svc := newTestHandler(t)
		o := sampleChart(victimID)
		svc.EXPECT().Create(gomock.Any(), victimID, gomock.Any()).Return(o, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/victims/"+victimID.String()+"/odontograms",
			models.CreateChartRequest{
				Type:            string(models.TypePostMortem),
				ExaminationDate: o.ExaminationDate,
			})
		req = withURLParams(req, map[string]string{"victimID": victimID.String()})
		req = testutil.WithActor(req, id.UserID(uuid.New()), id.RolePerito)

		w := httptest.NewRecorder()
		h.handleCreate(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		teeth, ok := resp["teeth"].(map[string]any)
		require.True(t, ok)
		assert.Len(t, teeth, 32)
	})

	t.Run("duplicate post-mortem maps to 409", func(t *testing.T) {
		h, svc := newTestHandler(t)
		svc.EXPECT().Create(gomock.Any(), victimID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDuplicatePostMortem, "victim already has a post-mortem odontogram"))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/victims/"+victimID.String()+"/odontograms",
			models.CreateChartRequest{Type: string(models.TypePostMortem), ExaminationDate: time.Now()})
		req = withURLParams(req, map[string]string{"victimID": victimID.String()})
		w := httptest.NewRecorder()
		h.handleCreate(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "duplicate_post_mortem", decodeError(t, w))
	})

	t.Run("malformed body", func(t *testing.T) {
		h, _ := newTestHandler(t)
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/victims/"+victimID.String()+"/odontograms", "{not json")
		req = withURLParams(req, map[string]string{"victimID": victimID.String()})
		w := httptest.NewRecorder()
		h.handleCreate(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, svc := newTestHandler(t)
		o := sampleChart(id.VictimID(uuid.New()))
		svc.EXPECT().Get(gomock.Any(), o.ID).Return(o, nil)

		req := testutil.NewRequest(t, http.MethodGet, "/odontograms/"+o.ID.String())
		req = withURLParams(req, map[string]string{"odontogramID": o.ID.String()})
		w := httptest.NewRecorder()
		h.handleGet(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		h, svc := newTestHandler(t)
		missing := id.OdontogramID(uuid.New())
		svc.EXPECT().Get(gomock.Any(), missing).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "odontogram not found"))

		req := testutil.NewRequest(t, http.MethodGet, "/odontograms/"+missing.String())
		req = withURLParams(req, map[string]string{"odontogramID": missing.String()})
		w := httptest.NewRecorder()
		h.handleGet(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeError(t, w))
	})

	t.Run("malformed odontogram ID", func(t *testing.T) {
		h, _ := newTestHandler(t)
		req := testutil.NewRequest(t, http.MethodGet, "/odontograms/not-a-uuid")
		req = withURLParams(req, map[string]string{"odontogramID": "not-a-uuid"})
		w := httptest.NewRecorder()
		h.handleGet(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleUpdateTooth(t *testing.T) {
	t.Run("finding replaced", func(t *testing.T) {
		h, svc := newTestHandler(t)
		o := sampleChart(id.VictimID(uuid.New()))
		svc.EXPECT().UpdateTooth(gomock.Any(), o.ID, "11", gomock.Any()).Return(o, nil)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/odontograms/"+o.ID.String()+"/teeth/11",
			models.UpdateToothRequest{Status: string(models.ToothPresenteCariado), Version: 1})
		req = withURLParams(req, map[string]string{"odontogramID": o.ID.String(), "fdi": "11"})
		w := httptest.NewRecorder()
		h.handleUpdateTooth(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid position maps to 422", func(t *testing.T) {
		h, svc := newTestHandler(t)
		o := sampleChart(id.VictimID(uuid.New()))
		svc.EXPECT().UpdateTooth(gomock.Any(), o.ID, "55", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidFDI, "FDI code \"55\" is not in the 32-position permanent dentition"))

		req := testutil.NewJSONRequest(t, http.MethodPut, "/odontograms/"+o.ID.String()+"/teeth/55",
			models.UpdateToothRequest{Status: string(models.ToothPresenteHigido), Version: 1})
		req = withURLParams(req, map[string]string{"odontogramID": o.ID.String(), "fdi": "55"})
		w := httptest.NewRecorder()
		h.handleUpdateTooth(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_fdi", decodeError(t, w))
	})

	t.Run("stale version maps to 409", func(t *testing.T) {
		h, svc := newTestHandler(t)
		o := sampleChart(id.VictimID(uuid.New()))
		svc.EXPECT().UpdateTooth(gomock.Any(), o.ID, "11", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeVersionConflict, "odontogram changed since version 1 was read"))

		req := testutil.NewJSONRequest(t, http.MethodPut, "/odontograms/"+o.ID.String()+"/teeth/11",
			models.UpdateToothRequest{Status: string(models.ToothPresenteHigido), Version: 1})
		req = withURLParams(req, map[string]string{"odontogramID": o.ID.String(), "fdi": "11"})
		w := httptest.NewRecorder()
		h.handleUpdateTooth(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "version_conflict", decodeError(t, w))
	})
}

func TestHandleDelete(t *testing.T) {
	h, svc := newTestHandler(t)
	o := sampleChart(id.VictimID(uuid.New()))
	svc.EXPECT().Delete(gomock.Any(), o.ID).Return(nil)

	req := testutil.NewRequest(t, http.MethodDelete, "/odontograms/"+o.ID.String())
	req = withURLParams(req, map[string]string{"odontogramID": o.ID.String()})
	w := httptest.NewRecorder()
	h.handleDelete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
