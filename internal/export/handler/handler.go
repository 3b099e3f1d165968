package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"odontoforense/internal/export"
	"odontoforense/internal/platform/metrics"
	"odontoforense/internal/platform/middleware"
	"odontoforense/internal/transport/http/shared"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

// Service defines the export operations the HTTP layer delegates to.
type Service interface {
	EvidenceCSV(ctx context.Context, ids []id.EvidenceID) ([]byte, error)
	CaseReport(ctx context.Context, caseID id.CaseID) (*export.Report, error)
}

// Handler handles export endpoints.
type Handler struct {
	logger       *slog.Logger
	exports      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	sessions     middleware.SessionChecker
}

// New creates a new export Handler.
func New(
	exports Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	sessions middleware.SessionChecker) *Handler {
	return &Handler{
		logger:       logger,
		exports:      exports,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		sessions:     sessions,
	}
}

// Register registers the export routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(exportRouter chi.Router) {
		exportRouter.Use(middleware.Recovery(h.logger))
		exportRouter.Use(middleware.RequestID)
		exportRouter.Use(middleware.ClientMetadata)
		exportRouter.Use(middleware.Logger(h.logger))
		exportRouter.Use(middleware.Timeout(30 * time.Second))
		exportRouter.Use(middleware.ContentTypeJSON)
		exportRouter.Use(middleware.Latency(h.metrics))
		exportRouter.Use(middleware.RequireAuth(h.jwtValidator, h.sessions, h.logger))

		exportRouter.Post("/export/evidences", h.handleEvidenceCSV)
		exportRouter.Get("/cases/{caseID}/export", h.handleCaseReport)
	})
}

type evidenceSelection struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handleEvidenceCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sel evidenceSelection
	if err := shared.DecodeJSON(r, &sel); err != nil {
		shared.WriteError(w, err)
		return
	}
	ids := make([]id.EvidenceID, 0, len(sel.IDs))
	for _, raw := range sel.IDs {
		evidenceID, err := id.ParseEvidenceID(raw)
		if err != nil {
			shared.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "invalid evidence id %q", raw))
			return
		}
		ids = append(ids, evidenceID)
	}

	csv, err := h.exports.EvidenceCSV(ctx, ids)
	if err != nil {
		h.logError(ctx, "failed to export evidence selection", err)
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="evidences.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(csv)
}

func (h *Handler) handleCaseReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}
	report, err := h.exports.CaseReport(ctx, caseID)
	if err != nil {
		h.logError(ctx, "failed to build case report", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
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
