package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	t.Run("empty secret is rejected", func(t *testing.T) {
		_, err := NewTokenService("", time.Hour)
		assert.Error(t, err)
	})

	t.Run("non-empty secret is accepted", func(t *testing.T) {
		svc, err := NewTokenService("secret", time.Hour)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestIssueAndValidateToken(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueToken("u1", []string{"admin"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("auditor"))
}

func TestValidateTokenFailures(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken(context.Background(), "not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenService("different-secret", time.Hour)
		require.NoError(t, err)
		token, err := other.IssueToken("u1", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := NewTokenService("test-secret", -time.Minute)
		require.NoError(t, err)
		token, err := expired.IssueToken("u1", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := svc.IssueToken("", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no subject")
	})
}
