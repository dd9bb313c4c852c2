package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	var ran atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.photo", func() error {
		ran.Add(1)
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(1), ran.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4, MaxRetries: 0})
	require.NoError(t, d.Enqueue(context.Background(), "send.photo", func() error {
		return errors.New("telegram: bad request (400)")
	}))
	d.Close()
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	block := make(chan struct{})
	_ = d.Enqueue(context.Background(), "a", func() error { <-block; return nil })
	// Fill the queue behind the blocked worker until saturation.
	var full bool
	for i := 0; i < 8; i++ {
		if err := d.Enqueue(context.Background(), "b", func() error { return nil }); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	close(block)
	d.Close()
	assert.True(t, full)
}

func TestDispatcherClosedQueue(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "a", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New("Post https://api.telegram.org/bot123456:AAErt_x-1/sendMessage: timeout")
	msg := sanitizeErrorMessage(err)
	assert.NotContains(t, msg, "123456:AAErt_x-1")
	assert.Contains(t, msg, "bot<redacted>")
	assert.Equal(t, "", sanitizeErrorMessage(nil))
}

func TestDispatcherHonoursDeadline(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, MaxRetries: 5, RetryBackoff: 50 * time.Millisecond, MaxDuration: 10 * time.Millisecond})
	require.NoError(t, d.Enqueue(context.Background(), "a", func() error {
		return &timeoutErr{}
	}))
	d.Close()
	assert.Equal(t, uint64(1), d.ErrorCount())
}

type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return true }
