package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backlog is the part of the request queue a health check needs.
type Backlog interface {
	Len(ctx context.Context) (int, error)
}

// QueueChecker reports the request backlog. A backlog above the threshold
// usually means a harness stopped draining.
type QueueChecker struct {
	queue     Backlog
	threshold int
}

func NewQueueChecker(queue Backlog, threshold int) *QueueChecker {
	return &QueueChecker{
		queue:     queue,
		threshold: threshold,
	}
}

func (q *QueueChecker) Name() string {
	return "queue"
}

func (q *QueueChecker) Check(ctx context.Context) error {
	n, err := q.queue.Len(ctx)
	if err != nil {
		return fmt.Errorf("queue length unavailable: %w", err)
	}

	if q.threshold > 0 && n > q.threshold {
		return Degraded(fmt.Sprintf("%d requests waiting to be drained (threshold %d)", n, q.threshold))
	}
	return nil
}

// RedisChecker checks connectivity of a Redis-backed queue.
type RedisChecker struct {
	client *redis.Client
	name   string
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{
		client: client,
		name:   "redis",
	}
}

func (r *RedisChecker) Name() string {
	return r.name
}

func (r *RedisChecker) Check(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	info, err := r.client.Info(ctx, "server").Result()
	if err != nil {
		return fmt.Errorf("failed to get redis info: %w", err)
	}
	if len(info) == 0 {
		return fmt.Errorf("empty redis info response")
	}

	return nil
}
