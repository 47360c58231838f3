package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	t.Parallel()

	t.Run("valid post", func(t *testing.T) {
		t.Parallel()

		authorID := uuid.New()
		post, err := NewPost(authorID, "Going Live", "We shipped.")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, post.ID)
		assert.Equal(t, authorID, post.AuthorID)
		assert.False(t, post.CreatedAt.IsZero())
		assert.Equal(t, post.CreatedAt, post.UpdatedAt)
		assert.Nil(t, post.PublishedAt)
		assert.Nil(t, post.DeletedAt)
	})

	t.Run("validation errors accumulate per field", func(t *testing.T) {
		t.Parallel()

		_, err := NewPost(uuid.Nil, "", "")
		require.Error(t, err)

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		fields := make([]string, 0, len(errs))
		for _, ve := range errs {
			fields = append(fields, ve.Field)
		}
		assert.ElementsMatch(t, []string{"author", "title", "body"}, fields)
	})

	t.Run("overlong title is rejected", func(t *testing.T) {
		t.Parallel()

		title := make([]byte, 256)
		for i := range title {
			title[i] = 'a'
		}
		_, err := NewPost(uuid.New(), string(title), "body")
		require.Error(t, err)

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, "title", errs[0].Field)
	})
}

func TestPostPublished(t *testing.T) {
	t.Parallel()

	post, err := NewPost(uuid.New(), "Title", "Body")
	require.NoError(t, err)
	assert.False(t, post.Published(), "unpublished by default")

	past := time.Now().UTC().Add(-time.Hour)
	post.PublishedAt = &past
	assert.True(t, post.Published())

	future := time.Now().UTC().Add(time.Hour)
	post.PublishedAt = &future
	assert.False(t, post.Published(), "a scheduled post is not yet published")
}

func TestPostResource(t *testing.T) {
	t.Parallel()

	post, err := NewPost(uuid.New(), "Title", "Body")
	require.NoError(t, err)

	assert.Equal(t, TypePosts, post.ResourceType())
	assert.Equal(t, post.ID.String(), post.ResourceID())

	v, ok := post.Attribute("title")
	require.True(t, ok)
	assert.Equal(t, "Title", v)

	v, ok = post.Attribute("published-at")
	require.True(t, ok)
	assert.Nil(t, v, "unset publication time serializes as null")

	_, ok = post.Attribute("deleted-at")
	assert.False(t, ok, "soft-delete state is not an attribute")

	id, ok := post.RelatedID("author")
	require.True(t, ok)
	assert.Equal(t, post.AuthorID.String(), id)

	_, ok = post.RelatedID("comments")
	assert.False(t, ok, "to-many relationships have no single foreign key")
}
