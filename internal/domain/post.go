package domain

import (
	"time"

	"github.com/google/uuid"
)

// TypePosts is the resource type name for posts.
const TypePosts = "posts"

// Post is a blog post. Posts are soft-deleted: DeletedAt is set instead of
// removing the row, and deleted posts are excluded from reads.
type Post struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Body        string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// NewPost creates a post with a fresh ID and timestamps. Returns the
// collected validation errors if any field is invalid.
func NewPost(authorID uuid.UUID, title, body string) (*Post, error) {
	now := time.Now().UTC()
	post := &Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}

// Validate checks the post's fields, accumulating one ValidationError per
// failed field.
func (p *Post) Validate() error {
	var errs ValidationErrors
	if p.ID == uuid.Nil {
		errs = append(errs, NewValidationError("id", "cannot be empty"))
	}
	if p.AuthorID == uuid.Nil {
		errs = append(errs, NewValidationError("author", "is required"))
	}
	if p.Title == "" {
		errs = append(errs, NewValidationError("title", "cannot be empty"))
	}
	if len(p.Title) > 255 {
		errs = append(errs, NewValidationError("title", "must be at most 255 characters"))
	}
	if p.Body == "" {
		errs = append(errs, NewValidationError("body", "cannot be empty"))
	}
	if errs != nil {
		return errs
	}
	return nil
}

// Touch bumps the update timestamp.
func (p *Post) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// Published reports whether the post has a publication time in the past.
func (p *Post) Published() bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(time.Now().UTC())
}

// ResourceType implements schema.Resource.
func (p *Post) ResourceType() string { return TypePosts }

// ResourceID implements schema.Resource.
func (p *Post) ResourceID() string { return p.ID.String() }

// Attribute implements schema.Resource.
func (p *Post) Attribute(name string) (interface{}, bool) {
	switch name {
	case "title":
		return p.Title, true
	case "body":
		return p.Body, true
	case "published-at":
		if p.PublishedAt == nil {
			return nil, true
		}
		return p.PublishedAt.UTC().Format(time.RFC3339), true
	case "created-at":
		return p.CreatedAt.UTC().Format(time.RFC3339), true
	case "updated-at":
		return p.UpdatedAt.UTC().Format(time.RFC3339), true
	default:
		return nil, false
	}
}

// RelatedID implements schema.ToOneRef for the author relationship.
func (p *Post) RelatedID(relationship string) (string, bool) {
	if relationship != "author" {
		return "", false
	}
	if p.AuthorID == uuid.Nil {
		return "", true
	}
	return p.AuthorID.String(), true
}
