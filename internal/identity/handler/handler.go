package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"odontoforense/internal/identity/models"
	"odontoforense/internal/platform/metrics"
	"odontoforense/internal/platform/middleware"
	"odontoforense/internal/transport/http/shared"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/requestcontext"
)

// Service defines the identity operations the HTTP layer delegates to.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.Profile, error)
	SearchEligible(ctx context.Context, query string) ([]models.Profile, error)
}

// Handler handles authentication and identity endpoints.
type Handler struct {
	logger       *slog.Logger
	identities   Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	sessions     middleware.SessionChecker
}

// New creates a new identity Handler.
func New(
	identities Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	sessions middleware.SessionChecker) *Handler {
	return &Handler{
		logger:       logger,
		identities:   identities,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		sessions:     sessions,
	}
}

// Register registers the identity routes with the chi router. Login is the
// only route outside the auth wall.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.Recovery(h.logger))
		authRouter.Use(middleware.RequestID)
		authRouter.Use(middleware.ClientMetadata)
		authRouter.Use(middleware.Logger(h.logger))
		authRouter.Use(middleware.Timeout(30 * time.Second))
		authRouter.Use(middleware.ContentTypeJSON)
		authRouter.Use(middleware.Latency(h.metrics))

		authRouter.Post("/auth/login", h.handleLogin)

		authRouter.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(h.jwtValidator, h.sessions, h.logger))
			protected.Get("/auth/me", h.handleMe)
			protected.Post("/auth/logout", h.handleLogout)
			protected.Get("/users/eligible", h.handleSearchEligible)
		})
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.identities.Login(ctx, &req)
	if err != nil {
		h.logError(ctx, "login failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.identities.Logout(ctx); err != nil {
		h.logError(ctx, "logout failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.identities.Me(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleSearchEligible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Team candidates are only useful to actors who can manage a team.
	role := requestcontext.Role(ctx)
	if role != id.RoleAdmin && role != id.RolePerito {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor is not allowed to search identities"))
		return
	}

	profiles, err := h.identities.SearchEligible(ctx, r.URL.Query().Get("query"))
	if err != nil {
		h.logError(ctx, "failed to search identities", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profiles)
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
