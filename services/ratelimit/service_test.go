package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllow(t *testing.T) {
	t.Run("allows up to the limit", func(t *testing.T) {
		svc := NewService(3, time.Minute, zap.NewNop())

		for i := 0; i < 3; i++ {
			result := svc.Allow("u1")
			assert.True(t, result.Allowed, "request %d", i)
			assert.Equal(t, 3-(i+1), result.RequestsRemaining)
		}

		result := svc.Allow("u1")
		assert.False(t, result.Allowed)
		assert.Zero(t, result.RequestsRemaining)
		assert.False(t, result.ResetAt.IsZero())
	})

	t.Run("keys are independent", func(t *testing.T) {
		svc := NewService(1, time.Minute, zap.NewNop())

		assert.True(t, svc.Allow("u1").Allowed)
		assert.True(t, svc.Allow("u2").Allowed)
		assert.False(t, svc.Allow("u1").Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		svc := NewService(1, 20*time.Millisecond, zap.NewNop())

		require.True(t, svc.Allow("u1").Allowed)
		require.False(t, svc.Allow("u1").Allowed)

		time.Sleep(30 * time.Millisecond)
		assert.True(t, svc.Allow("u1").Allowed)
	})

	t.Run("denied result reports when the window opens", func(t *testing.T) {
		svc := NewService(1, time.Minute, zap.NewNop())

		first := svc.Allow("u1")
		denied := svc.Allow("u1")
		require.False(t, denied.Allowed)
		assert.WithinDuration(t, first.ResetAt, denied.ResetAt, time.Second)
	})
}

func TestCleanup(t *testing.T) {
	svc := NewService(5, 20*time.Millisecond, zap.NewNop())

	svc.Allow("stale")
	time.Sleep(30 * time.Millisecond)
	svc.Allow("fresh")

	removed := svc.Cleanup()
	assert.Equal(t, 1, removed)

	// the stale key starts a fresh window
	assert.True(t, svc.Allow("stale").Allowed)
}
