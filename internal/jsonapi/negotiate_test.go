package jsonapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		wantOK bool
	}{
		{
			name:   "exact media type",
			header: "application/vnd.api+json",
			wantOK: true,
		},
		{
			name:   "parameters rejected",
			header: "application/vnd.api+json; charset=utf-8",
		},
		{
			name:   "plain json rejected",
			header: "application/json",
		},
		{
			name:   "empty rejected",
			header: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errObj := NegotiateContentType(tc.header)
			if tc.wantOK {
				assert.Nil(t, errObj)
				return
			}
			require.NotNil(t, errObj)
			assert.Equal(t, http.StatusUnsupportedMediaType, errObj.StatusCode())
			assert.Equal(t, "Content-Type", errObj.Source.Header)
		})
	}
}

func TestNegotiateAccept(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		wantOK bool
	}{
		{
			name:   "missing header accepts anything",
			header: "",
			wantOK: true,
		},
		{
			name:   "wildcard",
			header: "*/*",
			wantOK: true,
		},
		{
			name:   "application wildcard",
			header: "application/*",
			wantOK: true,
		},
		{
			name:   "exact media type",
			header: "application/vnd.api+json",
			wantOK: true,
		},
		{
			name:   "one parameter-free instance suffices",
			header: "application/vnd.api+json; profile=x, application/vnd.api+json",
			wantOK: true,
		},
		{
			name:   "quality parameter alone is acceptable",
			header: "application/vnd.api+json; q=0.9",
			wantOK: true,
		},
		{
			name:   "all instances parameterized",
			header: "application/vnd.api+json; profile=x",
		},
		{
			name:   "incompatible types only",
			header: "text/html",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errObj := NegotiateAccept(tc.header)
			if tc.wantOK {
				assert.Nil(t, errObj)
				return
			}
			require.NotNil(t, errObj)
			assert.Equal(t, http.StatusNotAcceptable, errObj.StatusCode())
		})
	}
}
