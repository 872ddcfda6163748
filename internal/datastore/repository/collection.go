package repository

import (
	"context"
	"time"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// CollectionSummary is one row of the collection list.
type CollectionSummary struct {
	ID                  uint
	Name                string
	TypeName            string
	ClassificationLabel string
	EntryCount          int64
	CreatedAt           time.Time
}

// CollectionRepository manages collections and their types.
type CollectionRepository interface {
	// CreateCollection creates a collection of typeName and snapshots the
	// type's template tiers and default fields into it.
	// Returns ErrCollectionExists for a duplicate name and ErrTypeNotFound
	// for an unknown type; nothing is written in either case.
	CreateCollection(ctx context.Context, name, typeName, classificationLabel string) (*entities.Collection, error)

	// GetCollection retrieves a collection with its type.
	// Returns ErrCollectionNotFound if not found.
	GetCollection(ctx context.Context, id uint) (*entities.Collection, error)

	// GetCollectionByName retrieves a collection by its unique name.
	// Returns ErrCollectionNotFound if not found.
	GetCollectionByName(ctx context.Context, name string) (*entities.Collection, error)

	// ListCollections returns every collection in name order with its type
	// name and entry count.
	ListCollections(ctx context.Context) ([]CollectionSummary, error)

	// RenameCollection changes a collection's name.
	// Returns ErrCollectionExists when the new name is taken.
	RenameCollection(ctx context.Context, id uint, name string) error

	// SetClassificationLabel updates the free-text classification label.
	SetClassificationLabel(ctx context.Context, id uint, label string) error

	// DeleteCollection removes a collection and everything it owns.
	// Returns ErrCollectionNotFound if not found.
	DeleteCollection(ctx context.Context, id uint) error

	// ListTypes returns every collection type with its tiers in order.
	ListTypes(ctx context.Context) ([]*entities.CollectionType, error)

	// GetTypeByName retrieves a collection type by name, case-insensitively.
	// Returns ErrTypeNotFound if not found.
	GetTypeByName(ctx context.Context, name string) (*entities.CollectionType, error)

	// EnsureType returns the type called name, creating it from the catalog
	// template (or the generic fallback) when it does not exist.
	EnsureType(ctx context.Context, name string) (*entities.CollectionType, error)
}
