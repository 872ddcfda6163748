package repository

import "context"

// TierRepository resolves and edits the ordered tiers of a collection.
type TierRepository interface {
	// TiersFor returns the collection's tier names in order. A collection
	// without tiers gets its type's template tiers, then the catalog's.
	// Returns ErrCollectionNotFound if the collection does not exist.
	TiersFor(ctx context.Context, collectionID uint) ([]string, error)

	// SetTiers replaces the full ordered tier set. Blank and repeated names
	// are dropped. Entries whose tier is no longer valid are rewritten to
	// the Undetermined tier in the same transaction.
	SetTiers(ctx context.Context, collectionID uint, names []string) error

	// AddTier appends one tier. Adding a name that already exists is a
	// no-op and reports false.
	AddTier(ctx context.Context, collectionID uint, name string) (bool, error)
}
