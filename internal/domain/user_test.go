package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelson/folio-api/internal/schema"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("valid user", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("Ada", "ada@example.com", "$2a$10$hash")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("invalid email carries the sentinel", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("Ada", "not-an-email", "$2a$10$hash")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("", "ada@example.com", "$2a$10$hash")
		require.Error(t, err)

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, "name", errs[0].Field)
	})
}

func TestUserResource(t *testing.T) {
	t.Parallel()

	user, err := NewUser("Ada", "ada@example.com", "$2a$10$hash")
	require.NoError(t, err)

	assert.Equal(t, TypeUsers, user.ResourceType())
	assert.Equal(t, user.ID.String(), user.ResourceID())

	v, ok := user.Attribute("name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	_, ok = user.Attribute("hashed-password")
	assert.False(t, ok, "credentials never surface as attributes")
	_, ok = user.Attribute("password")
	assert.False(t, ok)
}

func TestRegisterSchemas(t *testing.T) {
	t.Parallel()

	reg := schema.NewRegistry()
	require.NoError(t, RegisterSchemas(reg))

	for _, typ := range []string{TypePosts, TypeUsers, TypeComments, TypeTags} {
		_, ok := reg.Lookup(typ)
		assert.True(t, ok, "missing schema for %s", typ)
	}

	posts, _ := reg.Lookup(TypePosts)
	assert.Equal(t, "deleted_at", posts.DeletedAtColumn, "posts are soft-deleted")

	tags, ok := posts.Relationship("tags")
	require.True(t, ok)
	assert.Equal(t, "post_tags", tags.JoinTable)

	comments, _ := reg.Lookup(TypeComments)
	author, ok := comments.Relationship("author")
	require.True(t, ok)
	assert.True(t, author.AlwaysLinkage)
}
