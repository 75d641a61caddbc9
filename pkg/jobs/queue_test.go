package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue(Job{Type: "noop"})
	assert.Error(t, err)
}

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	queued, err := q.Enqueue(Job{Type: "recalculate", Payload: "schema-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, queued.ID)
	assert.False(t, queued.Enqueued.IsZero())

	select {
	case job := <-done:
		assert.Equal(t, queued.ID, job.ID)
		assert.Equal(t, "schema-1", job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	assert.Eventually(t, func() bool { return q.Stats().Succeeded == 1 }, time.Second, 10*time.Millisecond)
}

func TestQueueRetriesThenAbandons(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue("test", func(context.Context, Job) error {
		attempts.Add(1)
		return errors.New("db down")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Type: "recalculate"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return q.Stats().Abandoned == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, int64(2), q.Stats().Retried)
}
