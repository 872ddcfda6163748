package repository

import (
	"context"
	"time"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// SortOrder selects the ordering of query results.
type SortOrder int

const (
	// SortDateDesc orders by observation date, newest first. Undated
	// entries come last.
	SortDateDesc SortOrder = iota
	// SortNameAsc orders by entry name.
	SortNameAsc
)

// NoneTier labels entries without a tier in TierCounts.
const NoneTier = "None"

// Filter narrows entry queries. Zero members do not filter.
type Filter struct {
	// Tier matches entries with this tier. entities.UndeterminedTier matches
	// entries whose tier is null or not among the collection's current tiers.
	Tier string
	// EntryName matches entries with exactly this name.
	EntryName string
	// Search matches a case-insensitive substring of name, location or notes.
	Search string
	// TagIDs requires every listed tag to be attached.
	TagIDs []uint
}

// Page bounds a result window. A zero Limit returns every row from Offset.
type Page struct {
	Offset int
	Limit  int
}

// EntryRow is the list projection of an entry.
type EntryRow struct {
	ID         uint
	Name       string
	ObservedAt *time.Time
	Location   string
	Tier       *string
	// PrimaryPhotoID is the primary photo of the entry's name group, or its
	// first photo when the group has no primary.
	PrimaryPhotoID *uint
}

// EntryRepository is the query engine over entries and their write operations.
type EntryRepository interface {
	// Query returns the projection of matching entries in sort order.
	Query(ctx context.Context, collectionID uint, filter Filter, sort SortOrder, page Page) ([]EntryRow, error)

	// CountMatching counts entries matching filter.
	CountMatching(ctx context.Context, collectionID uint, filter Filter) (int64, error)

	// GetEntry retrieves an entry without associations.
	// Returns ErrEntryNotFound if not found.
	GetEntry(ctx context.Context, id uint) (*entities.Entry, error)

	// GetDetail retrieves an entry with attributes, tags and photos loaded.
	// Returns ErrEntryNotFound if not found.
	GetDetail(ctx context.Context, id uint) (*entities.Entry, error)

	// CreateEntry inserts an entry. A tier outside the collection's tiers
	// is rejected.
	CreateEntry(ctx context.Context, entry *entities.Entry) error

	// UpdateEntry saves the scalar columns of entry.
	UpdateEntry(ctx context.Context, entry *entities.Entry) error

	// DeleteEntry removes an entry with its photos, attribute values and tag
	// links. Tags themselves are kept.
	DeleteEntry(ctx context.Context, id uint) error

	// SetTags replaces the entry's tag set.
	SetTags(ctx context.Context, entryID uint, tagIDs []uint) error

	// UniqueEntryNames returns the distinct entry names in order.
	UniqueEntryNames(ctx context.Context, collectionID uint) ([]string, error)

	// TierCounts counts entries per stored tier; null tiers count as NoneTier.
	TierCounts(ctx context.Context, collectionID uint) (map[string]int64, error)

	// EntriesByName returns the entries called name, newest first.
	EntriesByName(ctx context.Context, collectionID uint, name string) ([]*entities.Entry, error)

	// EntriesWithCoordinates returns entries with both coordinates set,
	// optionally narrowed by tier and exact name.
	EntriesWithCoordinates(ctx context.Context, collectionID uint, tier, name string) ([]*entities.Entry, error)
}
