package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/model"
)

func request(i int) model.RecordedRequest {
	return model.RecordedRequest{
		ID:     fmt.Sprintf("req-%d", i),
		Method: "POST",
		Path:   model.PathAnalytics,
		Body:   []byte(fmt.Sprintf(`{"impressionId":"abc","sequenceNumber":%d}`, i)),
	}
}

// exerciseQueue runs the behaviour every backend must share.
func exerciseQueue(t *testing.T, q Queue) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(ctx, request(i)))
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	first, err := q.Take(ctx, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "req-0", first[0].ID)
	assert.Equal(t, "req-1", first[1].ID)

	rest, err := q.Take(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Equal(t, "req-2", rest[0].ID)
	assert.Equal(t, "req-4", rest[2].ID)
	assert.Equal(t, request(4).Body, rest[2].Body)

	// consumed, not duplicated
	again, err := q.Take(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	none, err := q.Take(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, q.Push(ctx, request(9)))
	require.NoError(t, q.Clear(ctx))
	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryQueue(t *testing.T) {
	exerciseQueue(t, NewMemoryQueue())
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue()
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Push(context.Background(), request(0)), ErrQueueClosed)
	_, err := q.Take(context.Background(), 1)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueue_ConcurrentPush(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = q.Push(ctx, request(i))
		}(i)
	}
	wg.Wait()

	taken, err := q.Take(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, taken, 50)
}

func TestNew_Memory(t *testing.T) {
	q, err := New(context.Background(), &config.QueueConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryQueue{}, q)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &config.QueueConfig{Backend: "kafka"}, nil)
	assert.Error(t, err)
}
