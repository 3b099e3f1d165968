package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"odontoforense/internal/odontogram/models"
	"odontoforense/internal/platform/metrics"
	"odontoforense/internal/platform/middleware"
	"odontoforense/internal/transport/http/shared"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

// Service defines the odontogram operations the HTTP layer delegates to.
type Service interface {
	Create(ctx context.Context, victimID id.VictimID, req *models.CreateChartRequest) (*models.Odontogram, error)
	Get(ctx context.Context, chartID id.OdontogramID) (*models.Odontogram, error)
	ListByVictim(ctx context.Context, victimID id.VictimID) ([]*models.Odontogram, error)
	Update(ctx context.Context, chartID id.OdontogramID, req *models.UpdateChartRequest) (*models.Odontogram, error)
	UpdateTooth(ctx context.Context, chartID id.OdontogramID, fdi string, req *models.UpdateToothRequest) (*models.Odontogram, error)
	Delete(ctx context.Context, chartID id.OdontogramID) error
}

// Handler handles odontogram endpoints.
type Handler struct {
	logger       *slog.Logger
	charts       Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	sessions     middleware.SessionChecker
}

// New creates a new odontogram Handler.
func New(
	charts Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	sessions middleware.SessionChecker) *Handler {
	return &Handler{
		logger:       logger,
		charts:       charts,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		sessions:     sessions,
	}
}

// Register registers the odontogram routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(chartRouter chi.Router) {
		chartRouter.Use(middleware.Recovery(h.logger))
		chartRouter.Use(middleware.RequestID)
		chartRouter.Use(middleware.ClientMetadata)
		chartRouter.Use(middleware.Logger(h.logger))
		chartRouter.Use(middleware.Timeout(30 * time.Second))
		chartRouter.Use(middleware.ContentTypeJSON)
		chartRouter.Use(middleware.Latency(h.metrics))
		chartRouter.Use(middleware.RequireAuth(h.jwtValidator, h.sessions, h.logger))

		chartRouter.Post("/victims/{victimID}/odontograms", h.handleCreate)
		chartRouter.Get("/victims/{victimID}/odontograms", h.handleListByVictim)
		chartRouter.Get("/odontograms/{odontogramID}", h.handleGet)
		chartRouter.Put("/odontograms/{odontogramID}", h.handleUpdate)
		chartRouter.Delete("/odontograms/{odontogramID}", h.handleDelete)
		chartRouter.Put("/odontograms/{odontogramID}/teeth/{fdi}", h.handleUpdateTooth)
	})
}

func chartIDFromURL(r *http.Request) (id.OdontogramID, error) {
	return id.ParseOdontogramID(chi.URLParam(r, "odontogramID"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	victimID, err := id.ParseVictimID(chi.URLParam(r, "victimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateChartRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	o, err := h.charts.Create(ctx, victimID, &req)
	if err != nil {
		h.logError(ctx, "failed to create odontogram", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) handleListByVictim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	victimID, err := id.ParseVictimID(chi.URLParam(r, "victimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	charts, err := h.charts.ListByVictim(ctx, victimID)
	if err != nil {
		h.logError(ctx, "failed to list odontograms", err)
		shared.WriteError(w, err)
		return
	}
	if charts == nil {
		charts = []*models.Odontogram{}
	}
	shared.WriteJSON(w, http.StatusOK, charts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chartID, err := chartIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	o, err := h.charts.Get(ctx, chartID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chartID, err := chartIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateChartRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	o, err := h.charts.Update(ctx, chartID, &req)
	if err != nil {
		h.logError(ctx, "failed to update odontogram", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) handleUpdateTooth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chartID, err := chartIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateToothRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	o, err := h.charts.UpdateTooth(ctx, chartID, chi.URLParam(r, "fdi"), &req)
	if err != nil {
		h.logError(ctx, "failed to update tooth", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chartID, err := chartIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.charts.Delete(ctx, chartID); err != nil {
		h.logError(ctx, "failed to delete odontogram", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
