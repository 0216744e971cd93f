package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/model"
)

// ErrQueueClosed indicates the queue is closed
var ErrQueueClosed = errors.New("queue closed")

// Queue holds recorded collector requests in arrival order until they are
// taken. Take consumes: a request is returned by at most one call.
type Queue interface {
	Push(ctx context.Context, req model.RecordedRequest) error
	Len(ctx context.Context) (int, error)
	Take(ctx context.Context, n int) ([]model.RecordedRequest, error)
	Clear(ctx context.Context) error
	Close() error
}

// New builds the queue backend selected by cfg. For the redis backend the
// connection is verified before returning.
func New(ctx context.Context, cfg *config.QueueConfig, logger *logrus.Logger) (Queue, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryQueue(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addresses[0],
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisQueue(client, cfg.Redis.Key, logger), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}

// MemoryQueue is a mutex guarded in-process FIFO.
type MemoryQueue struct {
	mu     sync.Mutex
	items  []model.RecordedRequest
	closed bool
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, req model.RecordedRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, req)
	return nil
}

func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

// Take removes and returns up to n requests from the head of the queue.
func (q *MemoryQueue) Take(_ context.Context, n int) ([]model.RecordedRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}
	if n <= 0 || len(q.items) == 0 {
		return []model.RecordedRequest{}, nil
	}
	if n > len(q.items) {
		n = len(q.items)
	}

	taken := make([]model.RecordedRequest, n)
	copy(taken, q.items[:n])

	// Shift rather than reslice so the backing array does not pin taken bodies.
	remaining := copy(q.items, q.items[n:])
	clear(q.items[remaining:])
	q.items = q.items[:remaining]

	return taken, nil
}

func (q *MemoryQueue) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	return nil
}
