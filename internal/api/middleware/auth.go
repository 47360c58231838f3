package middleware

import (
	"net/http"
	"strings"

	"github.com/keelson/folio-api/internal/api/shared"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/platform/logger"
	"github.com/keelson/folio-api/internal/service/auth"
)

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates an AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	// ALLOW-PANIC: Constructor enforcing required dependency
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate validates a bearer token when one is present and adds the
// user ID to the request context. Requests without an Authorization
// header pass through unauthenticated; the per-action authorizer decides
// whether that is acceptable.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithErrors(w, r, jsonapi.ErrorList{
				jsonapi.NewError(http.StatusUnauthorized, "Unauthorized",
					"Authorization header must use the Bearer scheme").
					WithCode("invalid_authorization").
					WithHeader("Authorization"),
			})
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			detail := "invalid authentication token"
			if err == auth.ErrExpiredToken {
				detail = "authentication token has expired"
			} else if err != auth.ErrInvalidToken {
				logger.FromContext(r.Context()).Error("failed to validate token", "error", err)
				detail = "authentication error"
			}
			shared.RespondWithErrors(w, r, jsonapi.ErrorList{
				jsonapi.NewError(http.StatusUnauthorized, "Unauthorized", detail).
					WithCode("unauthorized").
					WithHeader("Authorization"),
			})
			return
		}

		ctx := shared.SetUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
