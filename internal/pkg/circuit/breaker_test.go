package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker("test", 2, time.Minute)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker("test", 1, time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestBreakerDo(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Hour)
	notCounted := func(err error) bool { return !errors.Is(err, errBoom) }

	err := cb.Do(context.Background(), func(context.Context) error { return errBoom }, notCounted)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateClosed, cb.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = cb.Do(ctx, func(ctx context.Context) error { return ctx.Err() }, nil)
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Do(context.Background(), func(context.Context) error { return errors.New("upstream") }, nil)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err = cb.Do(context.Background(), func(context.Context) error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker("off", 0, time.Hour)
	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	assert.True(t, cb.Allow())
}
