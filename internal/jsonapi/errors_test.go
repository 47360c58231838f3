package jsonapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorListHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		statuses []int
		want     int
	}{
		{
			name:     "empty list",
			statuses: nil,
			want:     http.StatusInternalServerError,
		},
		{
			name:     "single 404",
			statuses: []int{404},
			want:     http.StatusNotFound,
		},
		{
			name:     "uniform 422",
			statuses: []int{422, 422, 422},
			want:     http.StatusUnprocessableEntity,
		},
		{
			name:     "mixed 4xx",
			statuses: []int{400, 422},
			want:     http.StatusBadRequest,
		},
		{
			name:     "mixed 403 and 409",
			statuses: []int{403, 409},
			want:     http.StatusBadRequest,
		},
		{
			name:     "any 5xx wins",
			statuses: []int{404, 500},
			want:     http.StatusInternalServerError,
		},
		{
			name:     "uniform 503",
			statuses: []int{503, 503},
			want:     http.StatusServiceUnavailable,
		},
		{
			name:     "no parsable status",
			statuses: []int{0},
			want:     http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var list ErrorList
			for _, s := range tc.statuses {
				if s == 0 {
					list = append(list, &ErrorObject{Title: "no status"})
					continue
				}
				list = append(list, NewError(s, "err", "detail"))
			}
			assert.Equal(t, tc.want, list.HTTPStatus())
		})
	}
}

func TestErrorObjectBuilders(t *testing.T) {
	t.Parallel()

	e := NewError(http.StatusBadRequest, "Invalid query parameter", "sort field unknown").
		WithCode("invalid_parameter").
		WithParameter("sort")

	assert.Equal(t, "400", e.Status)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode())
	assert.Equal(t, "invalid_parameter", e.Code)
	assert.Equal(t, "sort", e.Source.Parameter)
	assert.Empty(t, e.Source.Pointer)

	e = e.WithPointer("/data/attributes/title")
	assert.Equal(t, "/data/attributes/title", e.Source.Pointer)
	assert.Empty(t, e.Source.Parameter)
}

func TestErrorListError(t *testing.T) {
	t.Parallel()

	list := ErrorList{
		NewError(422, "Validation failed", "title cannot be empty"),
		NewError(422, "Validation failed", "body cannot be empty"),
	}
	msg := list.Error()
	assert.Contains(t, msg, "title cannot be empty")
	assert.Contains(t, msg, "body cannot be empty")

	assert.Equal(t, "no errors", ErrorList{}.Error())
}
