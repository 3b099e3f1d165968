package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"odontoforense/internal/casefile/models"
	"odontoforense/internal/platform/metrics"
	"odontoforense/internal/platform/middleware"
	"odontoforense/internal/policy"
	"odontoforense/internal/transport/http/shared"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

// Service defines the case operations the HTTP layer delegates to.
type Service interface {
	Create(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error)
	Get(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Case, error)
	Update(ctx context.Context, caseID id.CaseID, req *models.UpdateCaseRequest) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID) error
	AddMember(ctx context.Context, caseID id.CaseID, memberID id.UserID, surface policy.Surface) (*models.Case, error)
	RemoveMember(ctx context.Context, caseID id.CaseID, memberID id.UserID, surface policy.Surface) (*models.Case, error)
	Capabilities(ctx context.Context, caseID id.CaseID, surface policy.Surface) (policy.Capabilities, error)
	Analyze(ctx context.Context, caseID id.CaseID, action string) (string, error)
}

// Handler handles case endpoints.
type Handler struct {
	logger       *slog.Logger
	cases        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	sessions     middleware.SessionChecker
}

// New creates a new case Handler.
func New(
	cases Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	sessions middleware.SessionChecker) *Handler {
	return &Handler{
		logger:       logger,
		cases:        cases,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		sessions:     sessions,
	}
}

// Register registers the case routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(caseRouter chi.Router) {
		caseRouter.Use(middleware.Recovery(h.logger))
		caseRouter.Use(middleware.RequestID)
		caseRouter.Use(middleware.ClientMetadata)
		caseRouter.Use(middleware.Logger(h.logger))
		caseRouter.Use(middleware.Timeout(30 * time.Second))
		caseRouter.Use(middleware.ContentTypeJSON)
		caseRouter.Use(middleware.Latency(h.metrics))
		caseRouter.Use(middleware.RequireAuth(h.jwtValidator, h.sessions, h.logger))

		caseRouter.Post("/cases", h.handleCreate)
		caseRouter.Get("/cases", h.handleList)
		caseRouter.Get("/cases/{caseID}", h.handleGet)
		caseRouter.Put("/cases/{caseID}", h.handleUpdate)
		caseRouter.Delete("/cases/{caseID}", h.handleDelete)
		caseRouter.Get("/cases/{caseID}/capabilities", h.handleCapabilities)
		caseRouter.Post("/cases/{caseID}/team/{userID}", h.handleAddMember)
		caseRouter.Delete("/cases/{caseID}/team/{userID}", h.handleRemoveMember)
		caseRouter.Post("/cases/{caseID}/analyze", h.handleAnalyze)
	})
}

// surfaceOf derives the team-management surface from the authenticated role:
// admins operate through the admin console, everyone else through the expert
// console.
func surfaceOf(ctx context.Context) policy.Surface {
	if requestcontext.Role(ctx) == id.RoleAdmin {
		return policy.AdminConsole
	}
	return policy.ExpertConsole
}

func caseIDFromURL(r *http.Request) (id.CaseID, error) {
	return id.ParseCaseID(chi.URLParam(r, "caseID"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateCaseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.cases.Create(ctx, &req)
	if err != nil {
		h.logError(ctx, "failed to create case", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := models.ListFilter{
		NameContains: r.URL.Query().Get("name"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		parsed, err := models.ParseCaseStatus(status)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown status filter"))
			return
		}
		filter.Status = parsed
	}
	if category := r.URL.Query().Get("category"); category != "" {
		parsed, err := models.ParseCaseCategory(category)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown category filter"))
			return
		}
		filter.Category = parsed
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}

	cases, err := h.cases.List(ctx, filter)
	if err != nil {
		h.logError(ctx, "failed to list cases", err)
		shared.WriteError(w, err)
		return
	}
	if cases == nil {
		cases = []*models.Case{}
	}
	shared.WriteJSON(w, http.StatusOK, cases)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	c, err := h.cases.Get(ctx, caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateCaseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	c, err := h.cases.Update(ctx, caseID, &req)
	if err != nil {
		h.logError(ctx, "failed to update case", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.cases.Delete(ctx, caseID); err != nil {
		h.logError(ctx, "failed to delete case", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	caps, err := h.cases.Capabilities(ctx, caseID, surfaceOf(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, caps)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	memberID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	c, err := h.cases.AddMember(ctx, caseID, memberID, surfaceOf(ctx))
	if err != nil {
		h.logError(ctx, "failed to add team member", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	memberID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	c, err := h.cases.RemoveMember(ctx, caseID, memberID, surfaceOf(ctx))
	if err != nil {
		h.logError(ctx, "failed to remove team member", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

type analyzeRequest struct {
	Action string `json:"action"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := caseIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req analyzeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	analysis, err := h.cases.Analyze(ctx, caseID, req.Action)
	if err != nil {
		h.logError(ctx, "case analysis failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, analyzeResponse{Analysis: analysis})
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
