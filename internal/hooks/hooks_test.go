package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/schema"
)

type hookResource struct {
	typ string
	id  string
}

func (r hookResource) ResourceType() string { return r.typ }
func (r hookResource) ResourceID() string   { return r.id }

func (r hookResource) Attribute(string) (interface{}, bool) { return nil, false }

func TestRegistryBeforeCreate(t *testing.T) {
	t.Parallel()

	t.Run("hooks run in registration order and may mutate the document", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry()
		var order []string
		reg.OnBeforeCreate("posts", func(ctx context.Context, doc *jsonapi.ResourceObject) error {
			order = append(order, "first")
			if doc.Attributes == nil {
				doc.Attributes = make(map[string]interface{})
			}
			doc.Attributes["slug"] = "generated"
			return nil
		})
		reg.OnBeforeCreate("posts", func(ctx context.Context, doc *jsonapi.ResourceObject) error {
			order = append(order, "second")
			return nil
		})

		doc := &jsonapi.ResourceObject{Type: "posts"}
		require.NoError(t, reg.RunBeforeCreate(context.Background(), "posts", doc))
		assert.Equal(t, []string{"first", "second"}, order)
		assert.Equal(t, "generated", doc.Attributes["slug"])
	})

	t.Run("an error vetoes the operation and stops the chain", func(t *testing.T) {
		t.Parallel()

		veto := errors.New("not today")
		reg := NewRegistry()
		secondRan := false
		reg.OnBeforeCreate("posts", func(context.Context, *jsonapi.ResourceObject) error {
			return veto
		})
		reg.OnBeforeCreate("posts", func(context.Context, *jsonapi.ResourceObject) error {
			secondRan = true
			return nil
		})

		err := reg.RunBeforeCreate(context.Background(), "posts", &jsonapi.ResourceObject{Type: "posts"})
		assert.ErrorIs(t, err, veto)
		assert.False(t, secondRan)
	})

	t.Run("hooks are scoped to their resource type", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry()
		ran := false
		reg.OnBeforeCreate("comments", func(context.Context, *jsonapi.ResourceObject) error {
			ran = true
			return nil
		})

		require.NoError(t, reg.RunBeforeCreate(context.Background(), "posts", &jsonapi.ResourceObject{Type: "posts"}))
		assert.False(t, ran)
	})
}

func TestRegistryAfterWrite(t *testing.T) {
	t.Parallel()

	t.Run("after hooks see the stored resource", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry()
		var seen string
		reg.OnAfterCreate("posts", func(ctx context.Context, res schema.Resource) error {
			seen = res.ResourceID()
			return nil
		})

		require.NoError(t, reg.RunAfterCreate(context.Background(), hookResource{typ: "posts", id: "p1"}))
		assert.Equal(t, "p1", seen)
	})

	t.Run("update and delete hooks dispatch by the resource's type", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry()
		updated := false
		deleted := false
		reg.OnAfterUpdate("posts", func(ctx context.Context, res schema.Resource) error {
			updated = true
			return nil
		})
		reg.OnBeforeDelete("posts", func(ctx context.Context, res schema.Resource) error {
			deleted = true
			return nil
		})

		res := hookResource{typ: "posts", id: "p1"}
		require.NoError(t, reg.RunAfterUpdate(context.Background(), res))
		require.NoError(t, reg.RunBeforeDelete(context.Background(), res))
		assert.True(t, updated)
		assert.True(t, deleted)
	})

	t.Run("an empty registry is a no-op", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry()
		assert.NoError(t, reg.RunAfterCreate(context.Background(), hookResource{typ: "posts", id: "p1"}))
		assert.NoError(t, reg.RunBeforeDelete(context.Background(), hookResource{typ: "posts", id: "p1"}))
	})
}
