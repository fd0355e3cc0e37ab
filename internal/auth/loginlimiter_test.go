package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter() (*LoginLimiter, *MemoryAttemptStore) {
	store := NewMemoryAttemptStore()
	return NewLoginLimiter(store, DefaultLoginLimiterConfig()), store
}

func TestLimiterNoDelayBelowThreshold(t *testing.T) {
	limiter, _ := newTestLimiter()
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))
	require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))

	locked, delay, err := limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Zero(t, delay)
}

func TestLimiterProgressiveDelay(t *testing.T) {
	limiter, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))
	}
	locked, delay, err := limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 2*time.Second, delay)

	require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))
	_, delay, err = limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, delay)
}

func TestLimiterLockout(t *testing.T) {
	limiter, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))
	}
	locked, _, err := limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	assert.True(t, locked)

	// Other accounts are unaffected.
	locked, _, err = limiter.Check(ctx, "b@x.io")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLimiterSuccessResets(t *testing.T) {
	limiter, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))
	}
	require.NoError(t, limiter.RecordSuccess(ctx, "a@x.io"))

	locked, delay, err := limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Zero(t, delay)
}

func TestLimiterWindowExpiry(t *testing.T) {
	store := NewMemoryAttemptStore()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	limiter := NewLoginLimiter(store, DefaultLoginLimiterConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.io"))
	}
	locked, _, err := limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	require.True(t, locked)

	current = current.Add(16 * time.Minute)
	locked, delay, err := limiter.Check(ctx, "a@x.io")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Zero(t, delay)
}
