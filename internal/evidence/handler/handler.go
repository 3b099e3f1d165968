package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"odontoforense/internal/evidence/models"
	"odontoforense/internal/platform/metrics"
	"odontoforense/internal/platform/middleware"
	"odontoforense/internal/transport/http/shared"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

// Service defines the evidence operations the HTTP layer delegates to.
type Service interface {
	Create(ctx context.Context, caseID id.CaseID, req *models.CreateEvidenceRequest) (*models.Evidence, error)
	Get(ctx context.Context, evidenceID id.EvidenceID) (*models.Evidence, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Evidence, error)
	Update(ctx context.Context, evidenceID id.EvidenceID, req *models.UpdateEvidenceRequest) (*models.Evidence, error)
	Delete(ctx context.Context, evidenceID id.EvidenceID) error
}

// Handler handles evidence endpoints.
type Handler struct {
	logger       *slog.Logger
	evidences    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	sessions     middleware.SessionChecker
}

// New creates a new evidence Handler.
func New(
	evidences Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	sessions middleware.SessionChecker) *Handler {
	return &Handler{
		logger:       logger,
		evidences:    evidences,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		sessions:     sessions,
	}
}

// Register registers the evidence routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(evidenceRouter chi.Router) {
		evidenceRouter.Use(middleware.Recovery(h.logger))
		evidenceRouter.Use(middleware.RequestID)
		evidenceRouter.Use(middleware.ClientMetadata)
		evidenceRouter.Use(middleware.Logger(h.logger))
		evidenceRouter.Use(middleware.Timeout(30 * time.Second))
		evidenceRouter.Use(middleware.ContentTypeJSON)
		evidenceRouter.Use(middleware.Latency(h.metrics))
		evidenceRouter.Use(middleware.RequireAuth(h.jwtValidator, h.sessions, h.logger))

		evidenceRouter.Post("/cases/{caseID}/evidences", h.handleCreate)
		evidenceRouter.Get("/cases/{caseID}/evidences", h.handleListByCase)
		evidenceRouter.Get("/evidences/{evidenceID}", h.handleGet)
		evidenceRouter.Put("/evidences/{evidenceID}", h.handleUpdate)
		evidenceRouter.Delete("/evidences/{evidenceID}", h.handleDelete)
	})
}

func evidenceIDFromURL(r *http.Request) (id.EvidenceID, error) {
	return id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateEvidenceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	e, err := h.evidences.Create(ctx, caseID, &req)
	if err != nil {
		h.logError(ctx, "failed to create evidence", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	items, err := h.evidences.ListByCase(ctx, caseID)
	if err != nil {
		h.logError(ctx, "failed to list evidences", err)
		shared.WriteError(w, err)
		return
	}
	if items == nil {
		items = []*models.Evidence{}
	}
	shared.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	evidenceID, err := evidenceIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	e, err := h.evidences.Get(ctx, evidenceID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	evidenceID, err := evidenceIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateEvidenceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	e, err := h.evidences.Update(ctx, evidenceID, &req)
	if err != nil {
		h.logError(ctx, "failed to update evidence", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	evidenceID, err := evidenceIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.evidences.Delete(ctx, evidenceID); err != nil {
		h.logError(ctx, "failed to delete evidence", err)
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
