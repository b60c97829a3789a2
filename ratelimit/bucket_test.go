package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefillScenario(t *testing.T) {
	// bucket(max=1, refill=1/100ms): consume->true; consume->false;
	// waitTime(1)==100ms±; after 100ms consume->true.
	b := NewTokenBucket(1, 1, 100*time.Millisecond)
	fakeNow := time.Now()
	b.now = func() time.Time { return fakeNow }

	assert.True(t, b.Consume(1))
	assert.False(t, b.Consume(1))
	assert.Equal(t, 100*time.Millisecond, b.WaitTime(1))

	fakeNow = fakeNow.Add(100 * time.Millisecond)
	assert.True(t, b.Consume(1))
}

func TestTokenBucketNeverExceedsMax(t *testing.T) {
	b := NewTokenBucket(5, 10, time.Millisecond)
	fakeNow := time.Now()
	b.now = func() time.Time { return fakeNow }
	fakeNow = fakeNow.Add(time.Second)
	assert.Equal(t, float64(5), b.Available())
}

func TestTokenBudgetRejectsOverflow(t *testing.T) {
	budget := NewTokenBudget(100)
	require.NoError(t, budget.Record(60))
	err := budget.Record(50)
	require.Error(t, err)
	assert.Equal(t, 60, budget.Used())
}
