package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"odontoforense/internal/identity/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type RedisSessionSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *Redis
	ctx   context.Context
}

func TestRedisSessionSuite(t *testing.T) {
	suite.Run(t, new(RedisSessionSuite))
}

func (s *RedisSessionSuite) SetupTest() {
	mini, err := miniredis.Run()
	require.NoError(s.T(), err)
	s.mini = mini
	s.store = NewRedis(redis.NewClient(&redis.Options{Addr: mini.Addr()}))
	s.ctx = context.Background()
}

func (s *RedisSessionSuite) TearDownTest() {
	s.mini.Close()
}

func (s *RedisSessionSuite) newSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		Device:    "Chrome on Mac OS X",
		IPAddress: "10.0.0.7",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisSessionSuite) TestRoundTrip() {
	sess := s.newSession(time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	found, err := s.store.Find(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.Device, found.Device)

	active, err := s.store.IsActive(s.ctx, sess.ID, time.Now())
	s.Require().NoError(err)
	s.True(active)
}

func (s *RedisSessionSuite) TestRevoke() {
	sess := s.newSession(time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, sess))
	s.Require().NoError(s.store.Revoke(s.ctx, sess.ID))

	active, err := s.store.IsActive(s.ctx, sess.ID, time.Now())
	s.Require().NoError(err)
	s.False(active)

	_, err = s.store.Find(s.ctx, sess.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	s.True(errors.Is(s.store.Revoke(s.ctx, sess.ID), sentinel.ErrNotFound))
}

func (s *RedisSessionSuite) TestExpiryThroughTTL() {
	sess := s.newSession(time.Minute)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	s.mini.FastForward(2 * time.Minute)

	active, err := s.store.IsActive(s.ctx, sess.ID, time.Now())
	s.Require().NoError(err)
	s.False(active)
}

func (s *RedisSessionSuite) TestExpiredSessionRejectedAtCreate() {
	sess := s.newSession(-time.Minute)
	s.Error(s.store.Create(s.ctx, sess))
}
