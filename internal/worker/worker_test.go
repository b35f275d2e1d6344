package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viona/internal/config"
	"viona/internal/models"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []string
}

func (f *fakeSender) SendConfirmation(_ context.Context, booking models.Booking, _ models.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("transport down")
	}
	f.sent = append(f.sent, booking.ID)
	return nil
}

func (f *fakeSender) snapshot() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]string(nil), f.sent...)
}

func fastRetry(max int) RetryPolicy {
	return RetryPolicy{MaxRetries: max, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(0))
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
}

func TestRetryPolicyFromConfig(t *testing.T) {
	p := RetryPolicyFromConfig(config.RetryConfig{MaxRetries: 3})
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 2*time.Second, p.InitialDelay)
	assert.Equal(t, time.Minute, p.MaxDelay)
	assert.Equal(t, float64(2), p.BackoffFactor)
}

func TestEnqueueQueueFull(t *testing.T) {
	w := NewNotificationWorker(&fakeSender{}, nil, fastRetry(3), 1, nil)
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, models.Booking{ID: "a"}, models.LangEN))
	assert.ErrorIs(t, w.Enqueue(ctx, models.Booking{ID: "b"}, models.LangEN), ErrQueueFull)
}

func TestWorkerDeliversAndRetries(t *testing.T) {
	sender := &fakeSender{failures: 2}
	w := NewNotificationWorker(sender, nil, fastRetry(5), 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.Enqueue(ctx, models.Booking{ID: "b1"}, models.LangTR))

	assert.Eventually(t, func() bool {
		_, sent := sender.snapshot()
		return len(sent) == 1
	}, 2*time.Second, 5*time.Millisecond)

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"b1"}, sent)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerDeadLetter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sender := &fakeSender{failures: 100}
	w := NewNotificationWorker(sender, client, fastRetry(2), 8, nil)
	w.SetDeadLetterKey("viona:" + DeadLetterKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, w.Enqueue(ctx, models.Booking{ID: "dead"}, models.LangEN))

	assert.Eventually(t, func() bool {
		n, err := client.LLen(context.Background(), "viona:"+DeadLetterKey).Result()
		return err == nil && n == 1
	}, 2*time.Second, 5*time.Millisecond)

	raw, err := client.LIndex(context.Background(), "viona:"+DeadLetterKey, 0).Result()
	require.NoError(t, err)

	var task ConfirmationTask
	require.NoError(t, json.Unmarshal([]byte(raw), &task))
	assert.Equal(t, "dead", task.Booking.ID)
	assert.Equal(t, 2, task.Attempt)
	assert.Equal(t, "transport down", task.LastError)

	calls, _ := sender.snapshot()
	assert.Equal(t, 2, calls)
}
