package domain

import (
	"time"

	"github.com/google/uuid"
)

// TypeTags is the resource type name for tags.
const TypeTags = "tags"

// Tag is a label attached to posts via a many-to-many join.
type Tag struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// NewTag creates a tag with a fresh ID.
func NewTag(name string) (*Tag, error) {
	tag := &Tag{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return tag, nil
}

// Validate checks the tag's fields.
func (t *Tag) Validate() error {
	var errs ValidationErrors
	if t.ID == uuid.Nil {
		errs = append(errs, NewValidationError("id", "cannot be empty"))
	}
	if t.Name == "" {
		errs = append(errs, NewValidationError("name", "cannot be empty"))
	}
	if len(t.Name) > 64 {
		errs = append(errs, NewValidationError("name", "must be at most 64 characters"))
	}
	if errs != nil {
		return errs
	}
	return nil
}

// ResourceType implements schema.Resource.
func (t *Tag) ResourceType() string { return TypeTags }

// ResourceID implements schema.Resource.
func (t *Tag) ResourceID() string { return t.ID.String() }

// Attribute implements schema.Resource.
func (t *Tag) Attribute(name string) (interface{}, bool) {
	if name == "name" {
		return t.Name, true
	}
	return nil, false
}
