package xretry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextSleeper(t *testing.T) {
	s := ContextSleeper{}

	start := time.Now()
	assert.NoError(t, s.Sleep(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	assert.NoError(t, s.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, s.Sleep(ctx, 0), context.Canceled)
}

func TestContextSleeper_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ContextSleeper{}.Sleep(ctx, time.Hour), context.DeadlineExceeded)
}

func TestBlockingSleeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	// 不响应取消
	assert.NoError(t, BlockingSleeper{}.Sleep(ctx, 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.NoError(t, BlockingSleeper{}.Sleep(ctx, -time.Second))
}

func TestSleeperFunc(t *testing.T) {
	var got time.Duration
	s := SleeperFunc(func(_ context.Context, d time.Duration) error {
		got = d
		return nil
	})
	assert.NoError(t, s.Sleep(context.Background(), time.Second))
	assert.Equal(t, time.Second, got)
}
