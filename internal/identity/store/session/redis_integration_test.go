//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"odontoforense/internal/identity/models"
	"odontoforense/internal/identity/store/session"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/testutil/containers"
)

// Runs the session store against a real Redis server. The miniredis suite
// covers the behavior in detail; this one verifies the store works against
// the actual server, TTL semantics included.
type RedisIntegrationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.Redis
	ctx   context.Context
}

func TestRedisIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisIntegrationSuite) newSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		Device:    "Firefox on Ubuntu",
		IPAddress: "192.0.2.10",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisIntegrationSuite) TestRoundTripAndRevoke() {
	sess := s.newSession(time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	found, err := s.store.Find(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.Device, found.Device)

	active, err := s.store.IsActive(s.ctx, sess.ID, time.Now())
	s.Require().NoError(err)
	s.True(active)

	s.Require().NoError(s.store.Revoke(s.ctx, sess.ID))

	_, err = s.store.Find(s.ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	active, err = s.store.IsActive(s.ctx, sess.ID, time.Now())
	s.Require().NoError(err)
	s.False(active)
}

func (s *RedisIntegrationSuite) TestServerExpiresSession() {
	sess := s.newSession(time.Second)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	s.Require().Eventually(func() bool {
		active, err := s.store.IsActive(s.ctx, sess.ID, time.Now())
		return err == nil && !active
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisIntegrationSuite) TestRevokeUnknownSession() {
	err := s.store.Revoke(s.ctx, id.SessionID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
