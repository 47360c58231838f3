package api

import (
	"errors"
	"net/http"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/service/auth"
	"github.com/keelson/folio-api/internal/store"
)

// TranslateError maps an internal error to a JSON:API error list with
// sanitized client messages. Internal error strings never reach the
// response; full detail stays in the logs.
func TranslateError(err error) jsonapi.ErrorList {
	if err == nil {
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusInternalServerError, "Internal error",
				"an unexpected error occurred").WithCode("internal_error"),
		}
	}

	// Already-translated errors pass through unchanged.
	var list jsonapi.ErrorList
	if errors.As(err, &list) {
		return list
	}

	var validationErrs domain.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationErrorList(validationErrs)
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErrorList(domain.ValidationErrors{validationErr})
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthenticated):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusUnauthorized, "Unauthorized",
				"authentication is required").WithCode("unauthorized"),
		}

	case errors.Is(err, auth.ErrInvalidCredentials):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusUnauthorized, "Unauthorized",
				"invalid email or password").WithCode("invalid_credentials"),
		}

	case errors.Is(err, domain.ErrForbidden):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusForbidden, "Forbidden",
				"you are not allowed to perform this action").WithCode("forbidden"),
		}

	case errors.Is(err, store.ErrUnsupportedRelationship):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusForbidden, "Unsupported relationship update",
				"this relationship cannot be modified directly").
				WithCode("unsupported_relationship"),
		}

	case errors.Is(err, store.ErrRelatedNotFound):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusNotFound, "Related resource not found",
				"a referenced resource does not exist").WithCode("related_not_found"),
		}

	case errors.Is(err, store.ErrNotFound):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusNotFound, "Resource not found",
				"the requested resource does not exist").WithCode("not_found"),
		}

	case errors.Is(err, store.ErrDuplicate):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusConflict, "Conflict",
				"a resource with conflicting unique values already exists").
				WithCode("duplicate"),
		}

	case errors.Is(err, store.ErrInvalidEntity):
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusUnprocessableEntity, "Validation failed",
				"the resource failed validation").WithCode("invalid_entity"),
		}

	default:
		return jsonapi.ErrorList{
			jsonapi.NewError(http.StatusInternalServerError, "Internal error",
				"an unexpected error occurred").WithCode("internal_error"),
		}
	}
}

// validationErrorList turns field-level validation failures into 422
// error objects with attribute pointers, one per failed field.
func validationErrorList(errs domain.ValidationErrors) jsonapi.ErrorList {
	out := make(jsonapi.ErrorList, 0, len(errs))
	for _, ve := range errs {
		out = append(out, jsonapi.NewError(http.StatusUnprocessableEntity,
			"Validation failed", ve.Field+" "+ve.Message).
			WithCode("validation_failed").
			WithPointer("/data/attributes/"+ve.Field))
	}
	if len(out) == 0 {
		out = append(out, jsonapi.NewError(http.StatusUnprocessableEntity,
			"Validation failed", "the resource failed validation").
			WithCode("validation_failed"))
	}
	return out
}
