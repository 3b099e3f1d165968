package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odontoforense/internal/audit"
	"odontoforense/internal/identity/lockout"
	"odontoforense/internal/identity/models"
	sessionstore "odontoforense/internal/identity/store/session"
	userstore "odontoforense/internal/identity/store/user"
	"odontoforense/internal/jwt_token"
	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/requestcontext"
)

// Session activity is checked against the wall clock, so the fixture time
// must be near it.
var testTime = time.Now().UTC().Truncate(time.Second)

type fixture struct {
	svc      *Service
	users    *userstore.InMemory
	sessions *sessionstore.InMemory
	audited  *audit.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := userstore.NewInMemory()
	sessions := sessionstore.NewInMemory()
	audited := audit.NewInMemoryStore()
	tokens := jwttoken.NewJWTService("test-signing-key", "odontoforense", "odontoforense-api")

	svc := New(users, sessions, tokens,
		WithSessionTTL(time.Hour),
		WithAuditPublisher(audit.NewPublisher(audited)),
	)
	return &fixture{svc: svc, users: users, sessions: sessions, audited: audited}
}

func requestContext() context.Context {
	ctx := requestcontext.WithClientMetadata(context.Background(), "10.0.0.7",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	return requestcontext.WithTime(ctx, testTime)
}

func (f *fixture) registerUser(t *testing.T, email string, role id.Role) *models.User {
	t.Helper()
	u, err := f.svc.Register(requestContext(), "Dra. Ana Souza", email, "senha-secreta", role)
	require.NoError(t, err)
	return u
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials open a session", func(t *testing.T) {
		f := newFixture(t)
		u := f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

		result, err := f.svc.Login(requestContext(), &models.LoginRequest{
			Email:    "ana@pericia.gov.br",
			Password: "senha-secreta",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, u.ID, result.User.ID)
		assert.Equal(t, id.RolePerito, result.User.Role)
		assert.Equal(t, testTime.Add(time.Hour), result.ExpiresAt)

		events := f.audited.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionLoginSucceeded, events[0].Action)
	})

	t.Run("email is matched case-insensitively", func(t *testing.T) {
		f := newFixture(t)
		f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

		_, err := f.svc.Login(requestContext(), &models.LoginRequest{
			Email:    "  ANA@pericia.gov.br ",
			Password: "senha-secreta",
		})
		assert.NoError(t, err)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		f := newFixture(t)
		f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

		_, wrongPass := f.svc.Login(requestContext(), &models.LoginRequest{
			Email:    "ana@pericia.gov.br",
			Password: "senha-errada",
		})
		_, unknown := f.svc.Login(requestContext(), &models.LoginRequest{
			Email:    "ninguem@pericia.gov.br",
			Password: "senha-secreta",
		})

		require.Error(t, wrongPass)
		require.Error(t, unknown)
		assert.True(t, dErrors.HasCode(wrongPass, dErrors.CodeUnauthorized))
		assert.Equal(t, wrongPass.Error(), unknown.Error())

		events := f.audited.All()
		require.Len(t, events, 2)
		for _, e := range events {
			assert.Equal(t, audit.ActionLoginFailed, e.Action)
			assert.Equal(t, "denied", e.Decision)
		}
	})

	t.Run("device metadata recorded on the session", func(t *testing.T) {
		f := newFixture(t)
		f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

		result, err := f.svc.Login(requestContext(), &models.LoginRequest{
			Email:    "ana@pericia.gov.br",
			Password: "senha-secreta",
		})
		require.NoError(t, err)

		tokens := jwttoken.NewJWTService("test-signing-key", "odontoforense", "odontoforense-api")
		claims, err := tokens.ValidateToken(result.AccessToken)
		require.NoError(t, err)

		sess, err := f.sessions.Find(context.Background(), claims.SessionID)
		require.NoError(t, err)
		assert.Contains(t, sess.Device, "Firefox")
		assert.Equal(t, "10.0.0.7", sess.IPAddress)
	})
}

func TestLogoutAndSessionCheck(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

	result, err := f.svc.Login(requestContext(), &models.LoginRequest{
		Email:    "ana@pericia.gov.br",
		Password: "senha-secreta",
	})
	require.NoError(t, err)

	tokens := jwttoken.NewJWTService("test-signing-key", "odontoforense", "odontoforense-api")
	claims, err := tokens.ValidateToken(result.AccessToken)
	require.NoError(t, err)

	active, err := f.svc.IsSessionActive(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.True(t, active)

	ctx := requestcontext.WithSessionID(requestContext(), claims.SessionID)
	ctx = requestcontext.WithUserID(ctx, claims.UserID)
	ctx = requestcontext.WithRole(ctx, claims.Role)
	require.NoError(t, f.svc.Logout(ctx))

	active, err = f.svc.IsSessionActive(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.False(t, active)

	// Logout is idempotent once the session is gone.
	assert.NoError(t, f.svc.Logout(ctx))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	u := f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

	ctx := requestcontext.WithUserID(requestContext(), u.ID)
	profile, err := f.svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.ID)
	assert.Equal(t, "ana@pericia.gov.br", profile.Email)

	_, err = f.svc.Me(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRoleOf(t *testing.T) {
	f := newFixture(t)
	u := f.registerUser(t, "ana@pericia.gov.br", id.RoleAssistente)

	role, err := f.svc.RoleOf(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, id.RoleAssistente, role)

	_, err = f.svc.RoleOf(context.Background(), id.UserID(uuid.New()))
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestSearchEligible(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)

	admin, err := f.svc.Register(requestContext(), "Admin Central", "admin@pericia.gov.br", "senha-secreta", id.RoleAdmin)
	require.NoError(t, err)
	assistente, err := f.svc.Register(requestContext(), "Bruno Lima", "bruno@pericia.gov.br", "senha-secreta", id.RoleAssistente)
	require.NoError(t, err)

	profiles, err := f.svc.SearchEligible(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	for _, p := range profiles {
		assert.NotEqual(t, admin.ID, p.ID)
	}

	profiles, err = f.svc.SearchEligible(context.Background(), "bruno")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, assistente.ID, profiles[0].ID)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	t.Run("duplicate email", func(t *testing.T) {
		f.registerUser(t, "ana@pericia.gov.br", id.RolePerito)
		_, err := f.svc.Register(requestContext(), "Outra Ana", "ana@pericia.gov.br", "senha-secreta", id.RolePerito)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := f.svc.Register(requestContext(), "Ana", "curta@pericia.gov.br", "1234567", id.RolePerito)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := f.svc.Register(requestContext(), "Ana", "sem-arroba", "senha-secreta", id.RolePerito)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestLoginLockout(t *testing.T) {
	users := userstore.NewInMemory()
	sessions := sessionstore.NewInMemory()
	audited := audit.NewInMemoryStore()
	tokens := jwttoken.NewJWTService("test-signing-key", "odontoforense", "odontoforense-api")
	guard := lockout.NewGuard(lockout.NewInMemory(),
		lockout.Policy{MaxFailures: 2, Window: time.Minute, LockFor: time.Minute})

	svc := New(users, sessions, tokens,
		WithSessionTTL(time.Hour),
		WithAuditPublisher(audit.NewPublisher(audited)),
		WithLockoutGuard(guard),
	)
	_, err := svc.Register(requestContext(), "Dra. Ana Souza", "ana@pericia.gov.br", "senha-secreta", id.RolePerito)
	require.NoError(t, err)

	login := func(password string) error {
		_, err := svc.Login(requestContext(), &models.LoginRequest{
			Email:    "ana@pericia.gov.br",
			Password: password,
		})
		return err
	}

	require.Error(t, login("errada"))
	require.Error(t, login("errada"))

	// The threshold is reached; even the right password is refused now.
	err = login("senha-secreta")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "too many failed login attempts")

	events := audited.All()
	require.Len(t, events, 3)
	assert.Equal(t, "locked out", events[2].Reason)
}
