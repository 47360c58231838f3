package domain

import (
	"fmt"

	"github.com/keelson/folio-api/internal/schema"
)

// RegisterSchemas declares the served resource types on the given registry.
// Called once at bootstrap; the registry is read-only afterwards.
func RegisterSchemas(reg *schema.Registry) error {
	schemas := []*schema.Schema{
		{
			Type:            TypePosts,
			Table:           "posts",
			IDColumn:        "id",
			IDKind:          schema.KindUUID,
			DeletedAtColumn: "deleted_at",
			Attributes: []schema.Attribute{
				{Name: "title", Column: "title", Sortable: true, Filterable: true},
				{Name: "body", Column: "body"},
				{Name: "published-at", Column: "published_at", Kind: schema.KindTime, Sortable: true, Filterable: true},
				{Name: "created-at", Column: "created_at", Kind: schema.KindTime, Sortable: true},
				{Name: "updated-at", Column: "updated_at", Kind: schema.KindTime},
			},
			Relationships: []schema.Relationship{
				{Name: "author", Type: TypeUsers, LocalColumn: "author_id", Filterable: true},
				{Name: "comments", Type: TypeComments, ToMany: true, ForeignColumn: "post_id"},
				{
					Name:              "tags",
					Type:              TypeTags,
					ToMany:            true,
					JoinTable:         "post_tags",
					JoinLocalColumn:   "post_id",
					JoinRelatedColumn: "tag_id",
				},
			},
		},
		{
			Type:     TypeUsers,
			Table:    "users",
			IDColumn: "id",
			IDKind:   schema.KindUUID,
			Attributes: []schema.Attribute{
				{Name: "name", Column: "name", Sortable: true, Filterable: true},
				{Name: "email", Column: "email", Filterable: true},
				{Name: "created-at", Column: "created_at", Kind: schema.KindTime, Sortable: true},
			},
			Relationships: []schema.Relationship{
				{Name: "posts", Type: TypePosts, ToMany: true, ForeignColumn: "author_id"},
			},
		},
		{
			Type:     TypeComments,
			Table:    "comments",
			IDColumn: "id",
			IDKind:   schema.KindUUID,
			Attributes: []schema.Attribute{
				{Name: "body", Column: "body"},
				{Name: "created-at", Column: "created_at", Kind: schema.KindTime, Sortable: true},
			},
			Relationships: []schema.Relationship{
				{Name: "post", Type: TypePosts, LocalColumn: "post_id", Filterable: true},
				{Name: "author", Type: TypeUsers, LocalColumn: "author_id", Filterable: true, AlwaysLinkage: true},
			},
		},
		{
			Type:     TypeTags,
			Table:    "tags",
			IDColumn: "id",
			IDKind:   schema.KindUUID,
			Attributes: []schema.Attribute{
				{Name: "name", Column: "name", Sortable: true, Filterable: true},
			},
			Relationships: []schema.Relationship{
				{
					Name:              "posts",
					Type:              TypePosts,
					ToMany:            true,
					JoinTable:         "post_tags",
					JoinLocalColumn:   "tag_id",
					JoinRelatedColumn: "post_id",
				},
			},
		},
	}

	for _, s := range schemas {
		if err := reg.Register(s); err != nil {
			return fmt.Errorf("failed to register schema %q: %w", s.Type, err)
		}
	}
	return reg.Validate()
}
