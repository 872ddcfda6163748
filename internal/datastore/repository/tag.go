package repository

import (
	"context"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// TagRepository manages global tags and their parent/child relations.
type TagRepository interface {
	// CreateTag returns the tag called name, creating it when missing. An
	// existing tag is returned unchanged even if category differs.
	CreateTag(ctx context.Context, name, category string) (*entities.Tag, error)

	// GetTag retrieves a tag. Returns ErrTagNotFound if not found.
	GetTag(ctx context.Context, id uint) (*entities.Tag, error)

	// GetTagByName retrieves a tag by name. Returns ErrTagNotFound if not found.
	GetTagByName(ctx context.Context, name string) (*entities.Tag, error)

	// ListTags returns every tag in name order.
	ListTags(ctx context.Context) ([]*entities.Tag, error)

	// TagsByCategory groups tags by category; uncategorised tags use "".
	TagsByCategory(ctx context.Context) (map[string][]*entities.Tag, error)

	// UpdateTag changes name and/or category. Nil members are kept.
	// Returns ErrTagExists when the new name is taken.
	UpdateTag(ctx context.Context, id uint, name, category *string) error

	// DeleteTag removes a tag with its entry links and relations.
	DeleteTag(ctx context.Context, id uint) error

	// TagsForEntry returns an entry's tags in name order.
	TagsForEntry(ctx context.Context, entryID uint) ([]*entities.Tag, error)

	// AddRelation records parentID as a direct parent of childID. Returns
	// ErrTagCycle when childID is parentID or already one of its ancestors.
	AddRelation(ctx context.Context, childID, parentID uint) error

	// RemoveRelation deletes the edge, if any.
	RemoveRelation(ctx context.Context, childID, parentID uint) error

	// Parents returns the direct parents of a tag.
	Parents(ctx context.Context, id uint) ([]*entities.Tag, error)

	// Children returns the direct children of a tag.
	Children(ctx context.Context, id uint) ([]*entities.Tag, error)

	// Forest loads every tag and relation into an arena.
	Forest(ctx context.Context) (*TagForest, error)
}
