package jsonapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceIdentifierString(t *testing.T) {
	t.Parallel()

	ri := ResourceIdentifier{Type: "posts", ID: "42"}
	assert.Equal(t, "posts:42", ri.String())
}

func TestLinkageMarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		linkage *Linkage
		want    string
	}{
		{
			name:    "to-one null",
			linkage: ToOneLinkage(nil),
			want:    `null`,
		},
		{
			name:    "to-one identifier",
			linkage: ToOneLinkage(&ResourceIdentifier{Type: "users", ID: "u1"}),
			want:    `{"type":"users","id":"u1"}`,
		},
		{
			name:    "to-many empty is an array",
			linkage: ToManyLinkage(nil),
			want:    `[]`,
		},
		{
			name: "to-many ordered",
			linkage: ToManyLinkage([]ResourceIdentifier{
				{Type: "tags", ID: "b"},
				{Type: "tags", ID: "a"},
			}),
			want: `[{"type":"tags","id":"b"},{"type":"tags","id":"a"}]`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tc.linkage)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestLinkageUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("null", func(t *testing.T) {
		t.Parallel()
		var l Linkage
		require.NoError(t, json.Unmarshal([]byte(`null`), &l))
		assert.False(t, l.ToMany)
		assert.Nil(t, l.One)
	})

	t.Run("object", func(t *testing.T) {
		t.Parallel()
		var l Linkage
		require.NoError(t, json.Unmarshal([]byte(`{"type":"users","id":"u1"}`), &l))
		assert.False(t, l.ToMany)
		require.NotNil(t, l.One)
		assert.Equal(t, "u1", l.One.ID)
	})

	t.Run("array", func(t *testing.T) {
		t.Parallel()
		var l Linkage
		require.NoError(t, json.Unmarshal([]byte(`[{"type":"tags","id":"a"}]`), &l))
		assert.True(t, l.ToMany)
		assert.Len(t, l.Many, 1)
	})

	t.Run("scalar rejected", func(t *testing.T) {
		t.Parallel()
		var l Linkage
		assert.Error(t, json.Unmarshal([]byte(`7`), &l))
	})
}

func TestPrimaryDataMarshal(t *testing.T) {
	t.Parallel()

	t.Run("null single", func(t *testing.T) {
		t.Parallel()
		got, err := json.Marshal(SingleData(nil))
		require.NoError(t, err)
		assert.Equal(t, `null`, string(got))
	})

	t.Run("empty collection is an array", func(t *testing.T) {
		t.Parallel()
		got, err := json.Marshal(CollectionData(nil))
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
	})

	t.Run("single resource", func(t *testing.T) {
		t.Parallel()
		got, err := json.Marshal(SingleData(&ResourceObject{Type: "posts", ID: "1"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"posts","id":"1"}`, string(got))
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	body := `{
		"data": [
			{"type": "posts", "id": "1", "attributes": {"title": "A"}},
			{"type": "posts", "id": "2", "attributes": {"title": "B"}}
		],
		"meta": {"total": 2},
		"jsonapi": {"version": "1.0"}
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	require.NotNil(t, doc.Data)
	require.True(t, doc.Data.Many)
	require.Len(t, doc.Data.List, 2)
	assert.Equal(t, "A", doc.Data.List[0].Attributes["title"])
	assert.Equal(t, "1.0", doc.JSONAPI.Version)

	out, err := json.Marshal(&doc)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}
