package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelson/folio-api/internal/api/shared"
	"github.com/keelson/folio-api/internal/mocks"
	"github.com/keelson/folio-api/internal/service/auth"
)

func authProbe(t *testing.T, m *AuthMiddleware, header string) (*httptest.ResponseRecorder, *uuid.UUID, bool) {
	t.Helper()

	var (
		gotID   *uuid.UUID
		reached bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if id, ok := shared.GetUserID(r.Context()); ok {
			gotID = &id
		}
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/posts", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(w, r)
	return w, gotID, reached
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("no header passes through unauthenticated", func(t *testing.T) {
		t.Parallel()

		m := NewAuthMiddleware(&mocks.JWTService{})
		w, gotID, reached := authProbe(t, m, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
		assert.Nil(t, gotID)
	})

	t.Run("valid bearer token sets the user", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		m := NewAuthMiddleware(&mocks.JWTService{Claims: &auth.Claims{UserID: userID}})
		w, gotID, reached := authProbe(t, m, "Bearer good-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
		require.NotNil(t, gotID)
		assert.Equal(t, userID, *gotID)
	})

	t.Run("wrong scheme is rejected", func(t *testing.T) {
		t.Parallel()

		m := NewAuthMiddleware(&mocks.JWTService{})
		w, _, reached := authProbe(t, m, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		t.Parallel()

		m := NewAuthMiddleware(&mocks.JWTService{ValidateErr: auth.ErrInvalidToken})
		w, _, reached := authProbe(t, m, "Bearer bad-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
	})

	t.Run("expired token is rejected with a distinct detail", func(t *testing.T) {
		t.Parallel()

		m := NewAuthMiddleware(&mocks.JWTService{ValidateErr: auth.ErrExpiredToken})
		w, _, reached := authProbe(t, m, "Bearer stale-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
		assert.Contains(t, w.Body.String(), "expired")
	})
}
