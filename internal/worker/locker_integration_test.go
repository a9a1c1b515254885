//go:build integration

package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "docaudit/internal/platform/redis"
	"docaudit/internal/worker"
	"docaudit/pkg/testutil/containers"
)

type RunLockerSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRunLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RunLockerSuite))
}

func (s *RunLockerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RunLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RunLockerSuite) client() *platformredis.Client {
	return &platformredis.Client{Client: s.redis.Client}
}

func (s *RunLockerSuite) TestAcquireIsExclusivePerCase() {
	ctx := context.Background()
	locker := worker.NewRunLocker(s.client(), time.Minute)

	ok, err := locker.Acquire(ctx, 7)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = locker.Acquire(ctx, 7)
	s.Require().NoError(err)
	s.False(ok, "a held case must not be acquired twice")

	ok, err = locker.Acquire(ctx, 8)
	s.Require().NoError(err)
	s.True(ok, "locks are per case")
}

func (s *RunLockerSuite) TestReleaseAllowsReacquire() {
	ctx := context.Background()
	locker := worker.NewRunLocker(s.client(), time.Minute)

	ok, err := locker.Acquire(ctx, 7)
	s.Require().NoError(err)
	s.True(ok)

	locker.Release(ctx, 7)

	ok, err = locker.Acquire(ctx, 7)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RunLockerSuite) TestLockExpires() {
	ctx := context.Background()
	locker := worker.NewRunLocker(s.client(), 100*time.Millisecond)

	ok, err := locker.Acquire(ctx, 7)
	s.Require().NoError(err)
	s.True(ok)

	time.Sleep(200 * time.Millisecond)

	ok, err = locker.Acquire(ctx, 7)
	s.Require().NoError(err)
	s.True(ok, "an expired lock must be reacquirable")
}
