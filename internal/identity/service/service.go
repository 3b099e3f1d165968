//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Package service implements authentication and identity lookups. Login is
// session-backed: the bearer token references a session, and revoking the
// session kills every request carrying that token.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"odontoforense/internal/audit"
	"odontoforense/internal/identity/device"
	"odontoforense/internal/identity/models"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// UserStore persists identities.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SearchEligible(ctx context.Context, query string) ([]*models.User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	Create(ctx context.Context, sess *models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Revoke(ctx context.Context, sessionID id.SessionID) error
	IsActive(ctx context.Context, sessionID id.SessionID, now time.Time) (bool, error)
}

// TokenIssuer signs access tokens for authenticated sessions.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, sessionID id.SessionID, role id.Role, expiresIn time.Duration) (string, error)
}

// AuditPublisher records audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LockoutGuard throttles repeated login failures per email and client IP.
type LockoutGuard interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     TokenIssuer
	sessionTTL time.Duration
	logger     *slog.Logger
	auditor    AuditPublisher
	lockouts   LockoutGuard
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// WithLockoutGuard enables login brute-force throttling. Without it failed
// attempts are audited but never refused pre-emptively.
func WithLockoutGuard(guard LockoutGuard) Option {
	return func(s *Service) { s.lockouts = guard }
}

func New(users UserStore, sessions SessionStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: 8 * time.Hour,
		logger:     slog.Default(),
		tracer:     otel.Tracer("odontoforense/identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates credentials and opens a session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.login")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	clientIP := requestcontext.ClientIP(ctx)
	if s.lockouts != nil {
		if err := s.lockouts.Check(ctx, req.Email, clientIP); err != nil {
			s.emitLogin(ctx, id.UserID{}, "", audit.ActionLoginFailed, "locked out")
			return nil, err
		}
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordFailure(ctx, req.Email, clientIP)
			s.emitLogin(ctx, id.UserID{}, "", audit.ActionLoginFailed, "unknown email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, req.Email, clientIP)
		s.emitLogin(ctx, u.ID, u.Role, audit.ActionLoginFailed, "wrong password")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	if s.lockouts != nil {
		if err := s.lockouts.Reset(ctx, req.Email, clientIP); err != nil {
			s.logger.WarnContext(ctx, "failed to reset lockout state", "error", err.Error())
		}
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    u.ID,
		Device:    device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		IPAddress: requestcontext.ClientIP(ctx),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open session")
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, sess.ID, u.Role, s.sessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	s.emitLogin(ctx, u.ID, u.Role, audit.ActionLoginSucceeded, "")
	return &models.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   sess.ExpiresAt,
		User:        u.Profile(),
	}, nil
}

// Logout revokes the calling session. Requests carrying the session's token
// are rejected from this point on.
func (s *Service) Logout(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "identity.logout")
	defer span.End()

	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no session in context")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	s.emitLogin(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx), audit.ActionSessionRevoked, "")
	return nil
}

// Me returns the calling user's profile.
func (s *Service) Me(ctx context.Context) (models.Profile, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return models.Profile{}, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor in context")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Profile{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return u.Profile(), nil
}

// IsSessionActive implements the auth middleware's session check.
func (s *Service) IsSessionActive(ctx context.Context, sessionID id.SessionID) (bool, error) {
	return s.sessions.IsActive(ctx, sessionID, time.Now())
}

// RoleOf resolves an identity's role; the team service uses it to vet
// candidate members.
func (s *Service) RoleOf(ctx context.Context, userID id.UserID) (id.Role, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", sentinel.ErrNotFound
		}
		return "", err
	}
	return u.Role, nil
}

// SearchEligible returns team-eligible identities matching the query. Admin
// identities are never returned.
func (s *Service) SearchEligible(ctx context.Context, query string) ([]models.Profile, error) {
	users, err := s.users.SearchEligible(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search users")
	}
	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// Register creates an identity. Password hashes are computed here so stores
// never see plaintext.
func (s *Service) Register(ctx context.Context, name, email, password string, role id.Role) (*models.User, error) {
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u, err := models.NewUser(id.UserID(uuid.New()), name, email, role, string(hash), requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return u, nil
}

// recordFailure feeds the lockout guard. Guard errors must not change the
// outcome of the login attempt, so they are only logged.
func (s *Service) recordFailure(ctx context.Context, email, ip string) {
	if s.lockouts == nil {
		return
	}
	if err := s.lockouts.RecordFailure(ctx, email, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err.Error())
	}
}

func (s *Service) emitLogin(ctx context.Context, userID id.UserID, role id.Role, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   userID,
		ActorRole: role,
		Action:    action,
		Decision:  decisionFor(action),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action),
			"error", err,
		)
	}
}

func decisionFor(action audit.Action) string {
	if action == audit.ActionLoginFailed {
		return "denied"
	}
	return "applied"
}
