package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/mocks"
	"github.com/keelson/folio-api/internal/service/auth"
)

type authFixture struct {
	handler *AuthHandler
	users   *mocks.UserStore
	jwt     *mocks.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := mocks.NewUserStore()
	jwt := &mocks.JWTService{Token: "test-token"}
	return &authFixture{
		handler: NewAuthHandler(users, jwt, auth.NewBcryptHasher()),
		users:   users,
		jwt:     jwt,
	}
}

func postJSON(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates the user and issues a token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		w := postJSON(f.handler.Register,
			`{"name": "Ada", "email": "ada@example.com", "password": "correct horse battery"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "test-token", resp.Token)
		assert.NotEqual(t, uuid.Nil, resp.UserID)

		user, err := f.users.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada", user.Name)
		assert.NotEqual(t, "correct horse battery", user.HashedPassword,
			"password is stored hashed")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		w := postJSON(f.handler.Register, `{"name": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		w := postJSON(f.handler.Register,
			`{"name": "Ada", "email": "ada@example.com", "password": "short"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		w := postJSON(f.handler.Register,
			`{"name": "Ada", "email": "not-an-email", "password": "correct horse battery"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		body := `{"name": "Ada", "email": "ada@example.com", "password": "correct horse battery"}`
		require.Equal(t, http.StatusCreated, postJSON(f.handler.Register, body).Code)

		w := postJSON(f.handler.Register, body)
		require.Equal(t, http.StatusConflict, w.Code)

		var doc jsonapi.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		require.NotEmpty(t, doc.Errors)
		assert.Equal(t, "duplicate_email", doc.Errors[0].Code)
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Parallel()

	seedUser := func(t *testing.T, f *authFixture, email, password string) *domain.User {
		t.Helper()
		hashed, err := auth.NewBcryptHasher().Hash(password)
		require.NoError(t, err)
		user, err := domain.NewUser("Ada", email, hashed)
		require.NoError(t, err)
		require.NoError(t, f.users.Create(context.Background(), user))
		return user
	}

	t.Run("valid credentials issue a token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		user := seedUser(t, f, "ada@example.com", "correct horse battery")

		w := postJSON(f.handler.Login,
			`{"email": "ada@example.com", "password": "correct horse battery"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "test-token", resp.Token)
		assert.Equal(t, user.ID, resp.UserID)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		seedUser(t, f, "ada@example.com", "correct horse battery")

		w := postJSON(f.handler.Login,
			`{"email": "ada@example.com", "password": "wrong password!"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var doc jsonapi.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		require.NotEmpty(t, doc.Errors)
		assert.Equal(t, "invalid_credentials", doc.Errors[0].Code)
	})

	t.Run("unknown email answers the same as a wrong password", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		w := postJSON(f.handler.Login,
			`{"email": "ghost@example.com", "password": "correct horse battery"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var doc jsonapi.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		require.NotEmpty(t, doc.Errors)
		assert.Equal(t, "invalid_credentials", doc.Errors[0].Code)
	})

	t.Run("rejects a request without a password", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		w := postJSON(f.handler.Login, `{"email": "ada@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
