package repository

import (
	"context"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// DefaultSearchLimit bounds classification search results.
const DefaultSearchLimit = 50

// ClassificationRepository manages imported reference lists. At most one
// classification per collection is active.
type ClassificationRepository interface {
	// CreateClassification inserts a classification. It becomes active when
	// requested or when the collection has no active classification yet.
	CreateClassification(ctx context.Context, c *entities.Classification) error

	// GetClassification retrieves a classification.
	// Returns ErrClassificationNotFound if not found.
	GetClassification(ctx context.Context, id uint) (*entities.Classification, error)

	// ListClassifications returns a collection's classifications, active first.
	ListClassifications(ctx context.Context, collectionID uint) ([]*entities.Classification, error)

	// ActiveClassification returns the collection's active classification.
	// Returns ErrClassificationNotFound when none is active.
	ActiveClassification(ctx context.Context, collectionID uint) (*entities.Classification, error)

	// SetActive activates a classification and deactivates its siblings.
	SetActive(ctx context.Context, id uint) error

	// DeleteClassification removes a classification and its entries.
	// Returns ErrActiveClassification for the active one.
	DeleteClassification(ctx context.Context, id uint) error

	// CreateEntry inserts a classification entry. A parent must belong to
	// the same classification, else ErrParentMismatch.
	CreateEntry(ctx context.Context, e *entities.ClassificationEntry) error

	// SetParent re-links an entry under parentID; nil makes it a root.
	SetParent(ctx context.Context, entryID uint, parentID *uint) error

	// GetEntry retrieves a classification entry.
	// Returns ErrClassificationEntryNotFound if not found.
	GetEntry(ctx context.Context, id uint) (*entities.ClassificationEntry, error)

	// ListEntries returns a window of entries in name order.
	ListEntries(ctx context.Context, classificationID uint, page Page) ([]*entities.ClassificationEntry, error)

	// CountEntries counts a classification's entries.
	CountEntries(ctx context.Context, classificationID uint) (int64, error)

	// Search matches text against name, alternate name and category. Name
	// prefix matches rank first, then other matches, each alphabetical.
	// A limit of zero or less uses DefaultSearchLimit.
	Search(ctx context.Context, classificationID uint, text string, limit int) ([]*entities.ClassificationEntry, error)

	// Children returns the direct children of an entry in name order.
	Children(ctx context.Context, entryID uint) ([]*entities.ClassificationEntry, error)

	// Tree loads a classification's entries into an arena.
	Tree(ctx context.Context, classificationID uint) (*ClassificationTree, error)
}
