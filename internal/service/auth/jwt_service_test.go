package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelson/folio-api/internal/config"
)

const testSecret = "test-secret-key-thats-32-chars-long"

func newTestJWTService(t *testing.T, at time.Time) *hmacJWTService {
	t.Helper()

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:            testSecret,
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	impl := svc.(*hmacJWTService)
	impl.timeFunc = func() time.Time { return at }
	return impl
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	t.Run("rejects a short secret", func(t *testing.T) {
		t.Parallel()
		_, err := NewJWTService(config.AuthConfig{JWTSecret: "too-short", TokenLifetimeMinutes: 60})
		assert.Error(t, err)
	})

	t.Run("accepts a 32-character secret", func(t *testing.T) {
		t.Parallel()
		_, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
		assert.NoError(t, err)
	})
}

func TestJWTServiceRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService(t, now)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "tokens carry a unique jti")
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestJWTServiceValidate(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		svc := newTestJWTService(t, issued)
		token, err := svc.GenerateToken(context.Background(), uuid.New())
		require.NoError(t, err)

		svc.timeFunc = func() time.Time { return issued.Add(time.Hour + 10*time.Minute) }
		_, err = svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("expiry within the clock skew still validates", func(t *testing.T) {
		t.Parallel()
		svc := newTestJWTService(t, issued)
		token, err := svc.GenerateToken(context.Background(), uuid.New())
		require.NoError(t, err)

		svc.timeFunc = func() time.Time { return issued.Add(time.Hour + time.Minute) }
		_, err = svc.ValidateToken(context.Background(), token)
		assert.NoError(t, err)
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		t.Parallel()
		svc := newTestJWTService(t, issued)
		token, err := svc.GenerateToken(context.Background(), uuid.New())
		require.NoError(t, err)

		other, err := NewJWTService(config.AuthConfig{
			JWTSecret:            "another-secret-key-thats-32-chars-xx",
			TokenLifetimeMinutes: 60,
		})
		require.NoError(t, err)
		other.(*hmacJWTService).timeFunc = func() time.Time { return issued }

		_, err = other.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()
		svc := newTestJWTService(t, issued)
		_, err := svc.ValidateToken(context.Background(), "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		svc := newTestJWTService(t, issued)
		_, err := svc.ValidateToken(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
