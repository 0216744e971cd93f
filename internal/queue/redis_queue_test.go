package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/mockingress/internal/config"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisQueue) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	q := NewRedisQueue(client, "test:requests", logger)
	t.Cleanup(func() { _ = q.Close() })

	return mr, q
}

func TestRedisQueue(t *testing.T) {
	_, q := setupTestRedis(t)
	exerciseQueue(t, q)
}

func TestRedisQueue_UsesConfiguredKey(t *testing.T) {
	mr, q := setupTestRedis(t)

	require.NoError(t, q.Push(context.Background(), request(0)))

	items, err := mr.List("test:requests")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Contains(t, items[0], `"id":"req-0"`)
}

func TestRedisQueue_SkipsForeignEntries(t *testing.T) {
	mr, q := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, request(0)))
	_, err := mr.Push("test:requests", "not json")
	require.NoError(t, err)
	require.NoError(t, q.Push(ctx, request(1)))

	taken, err := q.Take(ctx, 3)
	require.NoError(t, err)
	require.Len(t, taken, 2)
	assert.Equal(t, "req-0", taken[0].ID)
	assert.Equal(t, "req-1", taken[1].ID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisQueue_SharedBacklog(t *testing.T) {
	mr, producer := setupTestRedis(t)
	ctx := context.Background()

	consumer := NewRedisQueue(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:requests", logrus.New())
	defer consumer.Close()

	require.NoError(t, producer.Push(ctx, request(0)))
	require.NoError(t, producer.Push(ctx, request(1)))

	taken, err := consumer.Take(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, taken, 2)

	n, err := producer.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNew_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := &config.QueueConfig{
		Backend: "redis",
		Redis: config.RedisConfig{
			Addresses: []string{mr.Addr()},
			Key:       "cfg:requests",
			PoolSize:  2,
		},
	}

	q, err := New(context.Background(), cfg, logrus.New())
	require.NoError(t, err)
	defer q.Close()

	rq, ok := q.(*RedisQueue)
	require.True(t, ok)
	assert.Equal(t, "cfg:requests", rq.key)
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.QueueConfig{
		Backend: "redis",
		Redis:   config.RedisConfig{Addresses: []string{addr}, Key: "k", PoolSize: 1},
	}

	_, err = New(context.Background(), cfg, logrus.New())
	assert.Error(t, err)
}
