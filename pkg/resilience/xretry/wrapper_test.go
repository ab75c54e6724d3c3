package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantTimer 记录 retry-go 的实际等待时间并立即触发
type instantTimer struct {
	waits []time.Duration
}

func (t *instantTimer) After(d time.Duration) <-chan time.Time {
	t.waits = append(t.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestDo(t *testing.T) {
	var calls int
	err := Do(context.Background(), Policy{MaxRetries: 2}, func() error {
		calls++
		if calls < 3 {
			return errRefused
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausted(t *testing.T) {
	var calls int
	var retried []int
	err := Do(context.Background(), Policy{MaxRetries: 1}, func() error {
		calls++
		return errRefused
	}, WithOnRetry(func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	}))
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, 2, calls)
	require.NotEmpty(t, retried)
	assert.Equal(t, 0, retried[0])
}

func TestDo_Permanent(t *testing.T) {
	sentinel := errors.New("invalid input")
	for _, wrap := range []func(error) error{NewPermanentError, Unrecoverable} {
		var calls int
		err := Do(context.Background(), Policy{MaxRetries: 5}, func() error {
			calls++
			return wrap(sentinel)
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	}
}

func TestDoWithData(t *testing.T) {
	var calls int
	v, err := DoWithData(context.Background(), Policy{MaxRetries: 3}, func() (string, error) {
		calls++
		if calls == 1 {
			return "", errRefused
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestDo_OnRetryDelayMatchesWait(t *testing.T) {
	p := Policy{MaxRetries: 3, BackoffFactor: 100 * time.Millisecond, JitterFactor: 0.5}
	timer := &instantTimer{}
	var reported []time.Duration
	opts := bridgeOptions(context.Background(), p, []Option{
		WithRand(fixedRand(0.5)),
		WithOnRetry(func(_ int, d time.Duration, _ error) {
			reported = append(reported, d)
		}),
	})

	var calls int
	err := retry.New(append(opts, retry.WithTimer(timer))...).Do(func() error {
		calls++
		return errRefused
	})

	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, 4, calls)
	want := []time.Duration{125 * time.Millisecond, 250 * time.Millisecond, 500 * time.Millisecond}
	assert.Equal(t, want, timer.waits)
	assert.Equal(t, want, reported)
}
