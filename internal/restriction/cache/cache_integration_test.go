//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"folio/internal/restriction/cache"
	id "folio/pkg/domain"
	"folio/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = cache.New(s.redis.Client, time.Minute, nil)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestVerdictRoundTrip() {
	ctx := context.Background()
	userID := id.NewUserID()

	_, ok := s.cache.Get(ctx, userID)
	s.False(ok, "unknown user is a miss")

	s.cache.Set(ctx, userID, true)
	restricted, ok := s.cache.Get(ctx, userID)
	s.True(ok)
	s.True(restricted)

	s.cache.Set(ctx, userID, false)
	restricted, ok = s.cache.Get(ctx, userID)
	s.True(ok)
	s.False(restricted)
}

func (s *RedisCacheSuite) TestForget() {
	ctx := context.Background()
	userID := id.NewUserID()

	s.cache.Set(ctx, userID, true)
	s.cache.Forget(ctx, userID)

	_, ok := s.cache.Get(ctx, userID)
	s.False(ok)
}

func (s *RedisCacheSuite) TestVerdictExpires() {
	short := cache.New(s.redis.Client, 50*time.Millisecond, nil)
	ctx := context.Background()
	userID := id.NewUserID()

	short.Set(ctx, userID, true)
	_, ok := short.Get(ctx, userID)
	s.True(ok)

	s.Require().Eventually(func() bool {
		_, ok := short.Get(ctx, userID)
		return !ok
	}, time.Second, 25*time.Millisecond)
}
