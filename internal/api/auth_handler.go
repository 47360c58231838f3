package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/keelson/folio-api/internal/api/shared"
	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/platform/logger"
	"github.com/keelson/folio-api/internal/service/auth"
	"github.com/keelson/folio-api/internal/store"
)

// AuthHandler handles authentication requests. Auth endpoints sit outside
// the JSON:API resource surface and exchange plain JSON payloads, but
// failures still answer with JSON:API error documents.
type AuthHandler struct {
	userStore  store.UserStore
	jwtService auth.JWTService
	hasher     auth.PasswordHasher
	validator  *validator.Validate
}

// NewAuthHandler creates an AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	hasher auth.PasswordHasher,
) *AuthHandler {
	// ALLOW-PANIC: Constructor enforcing required dependency
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	return &AuthHandler{
		userStore:  userStore,
		jwtService: jwtService,
		hasher:     hasher,
		validator:  validator.New(),
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		shared.RespondWithErrors(w, r, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusBadRequest, "Invalid request",
				"request body is not valid JSON").WithCode("invalid_json"),
		})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrors(w, r, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusBadRequest, "Invalid request",
				"name, email, and a password of at least 12 characters are required").
				WithCode("invalid_request"),
		})
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	user, err := domain.NewUser(req.Name, req.Email, hashed)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			shared.RespondWithErrors(w, r, jsonapi.ErrorList{
				jsonapi.NewError(http.StatusConflict, "Conflict",
					"email is already registered").WithCode("duplicate_email"),
			})
			return
		}
		log.Error("failed to create user", "error", err)
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to generate token", "error", err, "user_id", user.ID)
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	respondWithJSON(w, http.StatusCreated, AuthResponse{UserID: user.ID, Token: token})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		shared.RespondWithErrors(w, r, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusBadRequest, "Invalid request",
				"request body is not valid JSON").WithCode("invalid_json"),
		})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrors(w, r, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusBadRequest, "Invalid request",
				"email and password are required").WithCode("invalid_request"),
		})
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.RespondWithErrors(w, r, TranslateError(auth.ErrInvalidCredentials))
			return
		}
		log.Error("failed to get user by email", "error", err)
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	if err := h.hasher.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(auth.ErrInvalidCredentials))
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to generate token", "error", err, "user_id", user.ID)
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	respondWithJSON(w, http.StatusOK, AuthResponse{UserID: user.ID, Token: token})
}
