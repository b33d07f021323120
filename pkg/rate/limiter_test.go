package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNoLimiter(t *testing.T) {
	l := &NoLimiter{}
	for i := 0; i < 10000; i++ {
		allowed, err := l.Allow("")
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.NoError(t, l.Wait(context.Background(), ""))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, l.Wait(ctx, ""))
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(2))

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow("getBalance")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := l.Allow("getBalance")
	assert.NoError(t, err)
	assert.False(t, allowed)

	// Ensure key partitioning is valid
	for i := 0; i < 2; i++ {
		allowed, err := l.Allow("getAccountInfo")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err = l.Allow("getAccountInfo")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestLocalRateLimiter_Wait(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(20))

	start := time.Now()
	for i := 0; i < 21; i++ {
		require.NoError(t, l.Wait(context.Background(), "getBalance"))
	}
	assert.True(t, time.Since(start) >= 25*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	// The bucket is empty and the next token is further away than the
	// deadline.
	assert.Error(t, l.Wait(ctx, "getBalance"))
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, &NoLimiter{}, FromConfig(0))
	assert.IsType(t, &NoLimiter{}, FromConfig(-1))

	l := FromConfig(0.5)
	allowed, err := l.Allow("requestAirdrop")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = l.Allow("requestAirdrop")
	require.NoError(t, err)
	assert.False(t, allowed)
}
