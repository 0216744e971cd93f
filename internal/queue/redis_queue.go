package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/mockingress/internal/model"
)

// RedisQueue keeps the backlog in a Redis list so a mock server and a
// harness running in another process can share it.
type RedisQueue struct {
	client *redis.Client
	logger *logrus.Logger
	key    string
}

func NewRedisQueue(client *redis.Client, key string, logger *logrus.Logger) *RedisQueue {
	if key == "" {
		key = "mockingress:requests"
	}
	return &RedisQueue{
		client: client,
		logger: logger,
		key:    key,
	}
}

// Client exposes the underlying connection for health checks.
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}

func (q *RedisQueue) Push(ctx context.Context, req model.RecordedRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push request: %w", err)
	}
	return nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return int(n), nil
}

// Take reads and trims the head of the list in one MULTI block so two
// concurrent drains never see the same request.
func (q *RedisQueue) Take(ctx context.Context, n int) ([]model.RecordedRequest, error) {
	if n <= 0 {
		return []model.RecordedRequest{}, nil
	}

	var head *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		head = pipe.LRange(ctx, q.key, 0, int64(n-1))
		pipe.LTrim(ctx, q.key, int64(n), -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take requests: %w", err)
	}

	raw, err := head.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read taken requests: %w", err)
	}

	taken := make([]model.RecordedRequest, 0, len(raw))
	for _, item := range raw {
		var req model.RecordedRequest
		if err := json.Unmarshal([]byte(item), &req); err != nil {
			// Foreign data under our key; skip it rather than fail the drain.
			q.logger.WithError(err).WithField("key", q.key).Warn("Discarding undecodable queue entry")
			continue
		}
		taken = append(taken, req)
	}

	q.logger.WithFields(logrus.Fields{
		"key":   q.key,
		"taken": len(taken),
	}).Debug("Requests taken from redis queue")

	return taken, nil
}

func (q *RedisQueue) Clear(ctx context.Context) error {
	if err := q.client.Del(ctx, q.key).Err(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
