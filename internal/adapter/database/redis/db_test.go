package redis_test

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	redisrepo "todolists/internal/adapter/database/redis"
	"todolists/internal/core/port"
)

const testRedisAddr = "localhost:6379"

type RedisRepositoryTestSuite struct {
	suite.Suite
	Cache port.CacheRepository
	ctx   context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.ctx = context.Background()

	client := redisrepo.NewRedisClient(testRedisAddr, "", 0)
	if err := client.Ping(s.ctx).Err(); err != nil {
		s.T().Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	s.Cache = redisrepo.NewRedisRepository(client, "todolists-test:")
	s.Cache.DeleteByPrefix(s.ctx, "")
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	if s.Cache != nil {
		s.Cache.DeleteByPrefix(s.ctx, "")
		s.Cache.Close()
	}
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) TestCache_GetMiss() {
	_, err := s.Cache.Get(s.ctx, "alarm:404")

	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func (s *RedisRepositoryTestSuite) TestCache_ScanStripsNamespace() {
	Expect(s.Cache.Set(s.ctx, "geofence:1", []byte("home"), 0)).To(Succeed())
	Expect(s.Cache.Set(s.ctx, "alarm:1", []byte("soon"), 0)).To(Succeed())

	entries, err := s.Cache.Scan(s.ctx, "geofence:")

	Expect(err).To(BeNil())
	Expect(entries).To(Equal(map[string][]byte{"geofence:1": []byte("home")}))

	Expect(s.Cache.DeleteByPrefix(s.ctx, "geofence:")).To(Succeed())

	_, err = s.Cache.Get(s.ctx, "geofence:1")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}
