package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"odontoforense/internal/platform/metrics"
	"odontoforense/internal/platform/middleware"
	"odontoforense/internal/transport/http/shared"
	"odontoforense/internal/victim/models"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

// Service defines the victim operations the HTTP layer delegates to.
type Service interface {
	Create(ctx context.Context, caseID id.CaseID, req *models.CreateVictimRequest) (*models.Victim, error)
	Get(ctx context.Context, victimID id.VictimID) (*models.Victim, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Victim, error)
	Update(ctx context.Context, victimID id.VictimID, req *models.UpdateVictimRequest) (*models.Victim, error)
	Delete(ctx context.Context, victimID id.VictimID) error
}

// Handler handles victim endpoints.
type Handler struct {
	logger       *slog.Logger
	victims      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	sessions     middleware.SessionChecker
}

// New creates a new victim Handler.
func New(
	victims Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	sessions middleware.SessionChecker) *Handler {
	return &Handler{
		logger:       logger,
		victims:      victims,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		sessions:     sessions,
	}
}

// Register registers the victim routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(victimRouter chi.Router) {
		victimRouter.Use(middleware.Recovery(h.logger))
		victimRouter.Use(middleware.RequestID)
		victimRouter.Use(middleware.ClientMetadata)
		victimRouter.Use(middleware.Logger(h.logger))
		victimRouter.Use(middleware.Timeout(30 * time.Second))
		victimRouter.Use(middleware.ContentTypeJSON)
		victimRouter.Use(middleware.Latency(h.metrics))
		victimRouter.Use(middleware.RequireAuth(h.jwtValidator, h.sessions, h.logger))

		victimRouter.Post("/cases/{caseID}/victims", h.handleCreate)
		victimRouter.Get("/cases/{caseID}/victims", h.handleListByCase)
		victimRouter.Get("/victims/{victimID}", h.handleGet)
		victimRouter.Put("/victims/{victimID}", h.handleUpdate)
		victimRouter.Delete("/victims/{victimID}", h.handleDelete)
	})
}

func victimIDFromURL(r *http.Request) (id.VictimID, error) {
	return id.ParseVictimID(chi.URLParam(r, "victimID"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateVictimRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	v, err := h.victims.Create(ctx, caseID, &req)
	if err != nil {
		h.logError(ctx, "failed to create victim", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	victims, err := h.victims.ListByCase(ctx, caseID)
	if err != nil {
		h.logError(ctx, "failed to list victims", err)
		shared.WriteError(w, err)
		return
	}
	if victims == nil {
		victims = []*models.Victim{}
	}
	shared.WriteJSON(w, http.StatusOK, victims)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	victimID, err := victimIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	v, err := h.victims.Get(ctx, victimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	victimID, err := victimIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateVictimRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	v, err := h.victims.Update(ctx, victimID, &req)
	if err != nil {
		h.logError(ctx, "failed to update victim", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	victimID, err := victimIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.victims.Delete(ctx, victimID); err != nil {
		h.logError(ctx, "failed to delete victim", err)
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
