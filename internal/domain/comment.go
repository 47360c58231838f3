package domain

import (
	"time"

	"github.com/google/uuid"
)

// TypeComments is the resource type name for comments.
const TypeComments = "comments"

// Comment is a reader comment on a post.
type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewComment creates a comment with a fresh ID and timestamps.
func NewComment(postID, authorID uuid.UUID, body string) (*Comment, error) {
	now := time.Now().UTC()
	comment := &Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	return comment, nil
}

// Validate checks the comment's fields.
func (c *Comment) Validate() error {
	var errs ValidationErrors
	if c.ID == uuid.Nil {
		errs = append(errs, NewValidationError("id", "cannot be empty"))
	}
	if c.PostID == uuid.Nil {
		errs = append(errs, NewValidationError("post", "is required"))
	}
	if c.AuthorID == uuid.Nil {
		errs = append(errs, NewValidationError("author", "is required"))
	}
	if c.Body == "" {
		errs = append(errs, NewValidationError("body", "cannot be empty"))
	}
	if errs != nil {
		return errs
	}
	return nil
}

// ResourceType implements schema.Resource.
func (c *Comment) ResourceType() string { return TypeComments }

// ResourceID implements schema.Resource.
func (c *Comment) ResourceID() string { return c.ID.String() }

// Attribute implements schema.Resource.
func (c *Comment) Attribute(name string) (interface{}, bool) {
	switch name {
	case "body":
		return c.Body, true
	case "created-at":
		return c.CreatedAt.UTC().Format(time.RFC3339), true
	default:
		return nil, false
	}
}

// RelatedID implements schema.ToOneRef for the post and author
// relationships.
func (c *Comment) RelatedID(relationship string) (string, bool) {
	switch relationship {
	case "post":
		return c.PostID.String(), true
	case "author":
		return c.AuthorID.String(), true
	default:
		return "", false
	}
}
