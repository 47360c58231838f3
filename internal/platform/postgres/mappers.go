package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/schema"
)

// entityMapper binds one resource type to its table row and to inbound
// resource documents. scanTarget returns fresh scan destinations plus a
// build function so the loader can prepend extra columns (join keys) to
// the destination list.
type entityMapper interface {
	columns() []string
	scanTarget() ([]interface{}, func() (schema.Resource, error))
	bindCreate(doc *jsonapi.ResourceObject) (schema.Resource, error)
	bindUpdate(res schema.Resource, doc *jsonapi.ResourceObject) (schema.Resource, error)
	values(res schema.Resource) []interface{}
}

// binder accumulates field coercion errors so one bad document reports
// every problem at once.
type binder struct {
	errs domain.ValidationErrors
}

func (b *binder) fail(field, message string) {
	b.errs = append(b.errs, domain.NewValidationError(field, message))
}

// stringAttr coerces an attribute to a string when present.
func (b *binder) stringAttr(attrs map[string]interface{}, name string, dst *string) {
	v, ok := attrs[name]
	if !ok {
		return
	}
	s, ok := v.(string)
	if !ok {
		b.fail(name, "must be a string")
		return
	}
	*dst = s
}

// timeAttr coerces a nullable RFC 3339 attribute when present.
func (b *binder) timeAttr(attrs map[string]interface{}, name string, dst **time.Time) {
	v, ok := attrs[name]
	if !ok {
		return
	}
	if v == nil {
		*dst = nil
		return
	}
	s, ok := v.(string)
	if !ok {
		b.fail(name, "must be an RFC 3339 timestamp or null")
		return
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		b.fail(name, "must be an RFC 3339 timestamp or null")
		return
	}
	utc := t.UTC()
	*dst = &utc
}

// toOne binds a to-one relationship's linkage to a UUID when the document
// carries the relationship.
func (b *binder) toOne(doc *jsonapi.ResourceObject, name string, dst *uuid.UUID) {
	rel, ok := doc.Relationships[name]
	if !ok || rel.Data == nil {
		return
	}
	if rel.Data.One == nil {
		*dst = uuid.Nil
		return
	}
	id, err := uuid.Parse(rel.Data.One.ID)
	if err != nil {
		b.fail(name, "must reference a valid id")
		return
	}
	*dst = id
}

// result returns the accumulated errors wrapped for the store layer, or
// nil when binding succeeded.
func (b *binder) result() error {
	if b.errs != nil {
		return b.errs
	}
	return nil
}

// postMapper maps the posts table.
type postMapper struct{}

func (postMapper) columns() []string {
	return []string{"id", "author_id", "title", "body", "published_at", "created_at", "updated_at", "deleted_at"}
}

func (postMapper) scanTarget() ([]interface{}, func() (schema.Resource, error)) {
	var (
		p           domain.Post
		publishedAt sql.NullTime
		deletedAt   sql.NullTime
	)
	dests := []interface{}{&p.ID, &p.AuthorID, &p.Title, &p.Body, &publishedAt, &p.CreatedAt, &p.UpdatedAt, &deletedAt}
	return dests, func() (schema.Resource, error) {
		if publishedAt.Valid {
			t := publishedAt.Time.UTC()
			p.PublishedAt = &t
		}
		if deletedAt.Valid {
			t := deletedAt.Time.UTC()
			p.DeletedAt = &t
		}
		return &p, nil
	}
}

func (postMapper) bindCreate(doc *jsonapi.ResourceObject) (schema.Resource, error) {
	b := &binder{}
	now := time.Now().UTC()
	post := &domain.Post{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}

	b.stringAttr(doc.Attributes, "title", &post.Title)
	b.stringAttr(doc.Attributes, "body", &post.Body)
	b.timeAttr(doc.Attributes, "published-at", &post.PublishedAt)
	b.toOne(doc, "author", &post.AuthorID)
	if err := b.result(); err != nil {
		return nil, err
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}

func (m postMapper) bindUpdate(res schema.Resource, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	post, ok := res.(*domain.Post)
	if !ok {
		return nil, domain.NewValidationError("id", "is not a post")
	}
	updated := *post

	b := &binder{}
	b.stringAttr(doc.Attributes, "title", &updated.Title)
	b.stringAttr(doc.Attributes, "body", &updated.Body)
	b.timeAttr(doc.Attributes, "published-at", &updated.PublishedAt)
	b.toOne(doc, "author", &updated.AuthorID)
	if err := b.result(); err != nil {
		return nil, err
	}

	updated.Touch()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (postMapper) values(res schema.Resource) []interface{} {
	p := res.(*domain.Post)
	var publishedAt, deletedAt interface{}
	if p.PublishedAt != nil {
		publishedAt = *p.PublishedAt
	}
	if p.DeletedAt != nil {
		deletedAt = *p.DeletedAt
	}
	return []interface{}{p.ID, p.AuthorID, p.Title, p.Body, publishedAt, p.CreatedAt, p.UpdatedAt, deletedAt}
}

// userMapper maps the users table. The password hash column is managed by
// the auth service, not through the JSON:API surface, so it is absent from
// the mapped columns.
type userMapper struct{}

func (userMapper) columns() []string {
	return []string{"id", "name", "email", "created_at", "updated_at"}
}

func (userMapper) scanTarget() ([]interface{}, func() (schema.Resource, error)) {
	var u domain.User
	dests := []interface{}{&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt}
	return dests, func() (schema.Resource, error) { return &u, nil }
}

func (userMapper) bindCreate(doc *jsonapi.ResourceObject) (schema.Resource, error) {
	b := &binder{}
	now := time.Now().UTC()
	user := &domain.User{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}

	b.stringAttr(doc.Attributes, "name", &user.Name)
	b.stringAttr(doc.Attributes, "email", &user.Email)
	if err := b.result(); err != nil {
		return nil, err
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

func (userMapper) bindUpdate(res schema.Resource, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	user, ok := res.(*domain.User)
	if !ok {
		return nil, domain.NewValidationError("id", "is not a user")
	}
	updated := *user

	b := &binder{}
	b.stringAttr(doc.Attributes, "name", &updated.Name)
	b.stringAttr(doc.Attributes, "email", &updated.Email)
	if err := b.result(); err != nil {
		return nil, err
	}

	updated.UpdatedAt = time.Now().UTC()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (userMapper) values(res schema.Resource) []interface{} {
	u := res.(*domain.User)
	return []interface{}{u.ID, u.Name, u.Email, u.CreatedAt, u.UpdatedAt}
}

// commentMapper maps the comments table.
type commentMapper struct{}

func (commentMapper) columns() []string {
	return []string{"id", "post_id", "author_id", "body", "created_at", "updated_at"}
}

func (commentMapper) scanTarget() ([]interface{}, func() (schema.Resource, error)) {
	var c domain.Comment
	dests := []interface{}{&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt}
	return dests, func() (schema.Resource, error) { return &c, nil }
}

func (commentMapper) bindCreate(doc *jsonapi.ResourceObject) (schema.Resource, error) {
	b := &binder{}
	now := time.Now().UTC()
	comment := &domain.Comment{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}

	b.stringAttr(doc.Attributes, "body", &comment.Body)
	b.toOne(doc, "post", &comment.PostID)
	b.toOne(doc, "author", &comment.AuthorID)
	if err := b.result(); err != nil {
		return nil, err
	}

	if err := comment.Validate(); err != nil {
		return nil, err
	}
	return comment, nil
}

func (commentMapper) bindUpdate(res schema.Resource, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	comment, ok := res.(*domain.Comment)
	if !ok {
		return nil, domain.NewValidationError("id", "is not a comment")
	}
	updated := *comment

	b := &binder{}
	b.stringAttr(doc.Attributes, "body", &updated.Body)
	b.toOne(doc, "post", &updated.PostID)
	b.toOne(doc, "author", &updated.AuthorID)
	if err := b.result(); err != nil {
		return nil, err
	}

	updated.UpdatedAt = time.Now().UTC()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (commentMapper) values(res schema.Resource) []interface{} {
	c := res.(*domain.Comment)
	return []interface{}{c.ID, c.PostID, c.AuthorID, c.Body, c.CreatedAt, c.UpdatedAt}
}

// tagMapper maps the tags table.
type tagMapper struct{}

func (tagMapper) columns() []string {
	return []string{"id", "name", "created_at"}
}

func (tagMapper) scanTarget() ([]interface{}, func() (schema.Resource, error)) {
	var t domain.Tag
	dests := []interface{}{&t.ID, &t.Name, &t.CreatedAt}
	return dests, func() (schema.Resource, error) { return &t, nil }
}

func (tagMapper) bindCreate(doc *jsonapi.ResourceObject) (schema.Resource, error) {
	b := &binder{}
	tag := &domain.Tag{ID: uuid.New(), CreatedAt: time.Now().UTC()}

	b.stringAttr(doc.Attributes, "name", &tag.Name)
	if err := b.result(); err != nil {
		return nil, err
	}

	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return tag, nil
}

func (tagMapper) bindUpdate(res schema.Resource, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	tag, ok := res.(*domain.Tag)
	if !ok {
		return nil, domain.NewValidationError("id", "is not a tag")
	}
	updated := *tag

	b := &binder{}
	b.stringAttr(doc.Attributes, "name", &updated.Name)
	if err := b.result(); err != nil {
		return nil, err
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (tagMapper) values(res schema.Resource) []interface{} {
	t := res.(*domain.Tag)
	return []interface{}{t.ID, t.Name, t.CreatedAt}
}
