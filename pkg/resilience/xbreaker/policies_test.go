package xbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsecutiveFailuresPolicy(t *testing.T) {
	p := NewConsecutiveFailures(3)
	assert.False(t, p.ReadyToTrip(Counts{ConsecutiveFailures: 2}))
	assert.True(t, p.ReadyToTrip(Counts{ConsecutiveFailures: 3}))
}

func TestFailureRatioPolicy(t *testing.T) {
	p := NewFailureRatio(0.5, 10)
	assert.False(t, p.ReadyToTrip(Counts{}))
	assert.False(t, p.ReadyToTrip(Counts{Requests: 9, TotalFailures: 9}))
	assert.False(t, p.ReadyToTrip(Counts{Requests: 10, TotalFailures: 4}))
	assert.True(t, p.ReadyToTrip(Counts{Requests: 10, TotalFailures: 5}))

	assert.Equal(t, 1.0, NewFailureRatio(2, 0).Ratio())
	assert.Equal(t, 0.0, NewFailureRatio(-1, 0).Ratio())
	assert.Equal(t, uint32(10), p.MinRequests())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{FailureRatio: 0.5, MinRequests: 10, OpenTimeout: time.Second}.Validate())
	assert.ErrorIs(t, Config{FailureRatio: 1.5}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{OpenTimeout: -time.Second}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Interval: -time.Second}.Validate(), ErrInvalidConfig)
}

func TestConfig_Options(t *testing.T) {
	b := NewBreaker("ratio", Config{FailureRatio: 0.25, MinRequests: 4}.Options()...)
	p, ok := b.TripPolicy().(*FailureRatioPolicy)
	assert.True(t, ok)
	assert.Equal(t, 0.25, p.Ratio())

	b = NewBreaker("consecutive", Config{ConsecutiveFailures: 2}.Options()...)
	cp, ok := b.TripPolicy().(*ConsecutiveFailuresPolicy)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), cp.Threshold())

	b = NewBreaker("default", Config{}.Options()...)
	cp, ok = b.TripPolicy().(*ConsecutiveFailuresPolicy)
	assert.True(t, ok)
	assert.Equal(t, uint32(DefaultConsecutiveFailures), cp.Threshold())
}
