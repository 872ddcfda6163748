package repository

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// entryRepository implements EntryRepository.
type entryRepository struct {
	base
	tiers *tierRepository
}

// primaryPhotoSQL picks the primary photo of the row's name group, falling
// back to the group's oldest photo.
const primaryPhotoSQL = "SELECT p.id FROM " + tablePhotos + " p " +
	"JOIN " + tableEntries + " g ON g.id = p.entry_id " +
	"WHERE g.collection_id = entries.collection_id AND g.name = entries.name " +
	"ORDER BY p.is_primary DESC, p.id ASC LIMIT 1"

// filtered builds the base query shared by Query and CountMatching.
func (r *entryRepository) filtered(ctx context.Context, collectionID uint, f Filter) (*gorm.DB, error) {
	db := r.conn(ctx).Model(&entities.Entry{}).Where("entries.collection_id = ?", collectionID)

	switch tier := strings.TrimSpace(f.Tier); tier {
	case "":
	case entities.UndeterminedTier:
		valid, err := r.tiers.TiersFor(ctx, collectionID)
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if len(valid) > 0 {
			db = db.Where("(entries.tier IS NULL OR entries.tier NOT IN ?)", valid)
		} else {
			db = db.Where("(entries.tier IS NULL OR entries.tier = ?)", entities.UndeterminedTier)
		}
	default:
		db = db.Where("entries.tier = ?", tier)
	}

	if f.EntryName != "" {
		db = db.Where("entries.name = ?", f.EntryName)
	}

	if strings.TrimSpace(f.Search) != "" {
		p := likePattern(f.Search)
		db = db.Where("("+likeLower("entries.name")+" OR "+likeLower("entries.location")+" OR "+likeLower("entries.notes")+")", p, p, p)
	}

	if ids := uniqueIDs(f.TagIDs); len(ids) > 0 {
		// every tag must be present, so count distinct matches per entry
		carrying := r.conn(ctx).Table(tableEntryTags).
			Select("entry_id").
			Where("tag_id IN ?", ids).
			Group("entry_id").
			Having("COUNT(DISTINCT tag_id) = ?", len(ids))
		db = db.Where("entries.id IN (?)", carrying)
	}

	return db, nil
}

// Query returns the list projection of matching entries.
func (r *entryRepository) Query(ctx context.Context, collectionID uint, filter Filter, sort SortOrder, page Page) (_ []EntryRow, err error) {
	defer r.observe("query_entries", time.Now(), &err)

	db, err := r.filtered(ctx, collectionID, filter)
	if err != nil {
		return nil, dbError("query_entries", err)
	}

	db = db.Select("entries.id, entries.name, entries.observed_at, entries.location, entries.tier, (" +
		primaryPhotoSQL + ") AS primary_photo_id")

	switch sort {
	case SortNameAsc:
		db = db.Order("entries.name ASC, entries.id ASC")
	default:
		db = db.Order("entries.observed_at DESC, entries.id DESC")
	}

	if page.Offset > 0 {
		db = db.Offset(page.Offset)
	}
	switch {
	case page.Limit > 0:
		db = db.Limit(page.Limit)
	case page.Offset > 0:
		// both backends need a LIMIT before OFFSET
		db = db.Limit(math.MaxInt32)
	}

	rows := []EntryRow{}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, dbError("query_entries", err)
	}
	return rows, nil
}

// CountMatching counts entries matching filter.
func (r *entryRepository) CountMatching(ctx context.Context, collectionID uint, filter Filter) (int64, error) {
	db, err := r.filtered(ctx, collectionID, filter)
	if err != nil {
		return 0, dbError("count_entries", err)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, dbError("count_entries", err)
	}
	return n, nil
}

// GetEntry retrieves an entry without associations.
func (r *entryRepository) GetEntry(ctx context.Context, id uint) (*entities.Entry, error) {
	var entry entities.Entry
	err := r.conn(ctx).First(&entry, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrEntryNotFound, "entry", id)
	}
	if err != nil {
		return nil, dbError("get_entry", err)
	}
	return &entry, nil
}

// GetDetail retrieves an entry with all associations in one call.
func (r *entryRepository) GetDetail(ctx context.Context, id uint) (_ *entities.Entry, err error) {
	defer r.observe("get_entry_detail", time.Now(), &err)

	var entry entities.Entry
	err = r.conn(ctx).
		Preload("Attributes.Field").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("is_primary DESC, id ASC") }).
		First(&entry, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrEntryNotFound, "entry", id)
	}
	if err != nil {
		return nil, dbError("get_entry_detail", err)
	}
	return &entry, nil
}

// validateEntry normalizes an entry and checks it against its collection.
func (r *entryRepository) validateEntry(tx *gorm.DB, entry *entities.Entry) error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return invalidInput("entry name is required")
	}
	if entry.Latitude != nil && (*entry.Latitude < -90 || *entry.Latitude > 90) {
		return invalidInput("latitude %v out of range", *entry.Latitude)
	}
	if entry.Longitude != nil && (*entry.Longitude < -180 || *entry.Longitude > 180) {
		return invalidInput("longitude %v out of range", *entry.Longitude)
	}

	if entry.Tier != nil {
		tier := strings.TrimSpace(*entry.Tier)
		if tier == "" {
			entry.Tier = nil
			return nil
		}
		entry.Tier = &tier
		if tier == entities.UndeterminedTier {
			return nil
		}
		valid, err := resolveTiers(tx, r.tiers.catalog, entry.CollectionID)
		if err != nil {
			return err
		}
		if !slices.Contains(valid, tier) {
			return invalidInput("tier %q is not defined for collection %d", tier, entry.CollectionID)
		}
	}
	return nil
}

// CreateEntry inserts an entry without its associations.
func (r *entryRepository) CreateEntry(ctx context.Context, entry *entities.Entry) (err error) {
	defer r.observe("create_entry", time.Now(), &err)

	if entry == nil {
		return invalidInput("entry is nil")
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var coll int64
		if err := tx.Model(&entities.Collection{}).Where("id = ?", entry.CollectionID).Count(&coll).Error; err != nil {
			return err
		}
		if coll == 0 {
			return notFound(ErrCollectionNotFound, "collection", entry.CollectionID)
		}
		if err := r.validateEntry(tx, entry); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(entry).Error
	})
	return dbError("create_entry", err)
}

// UpdateEntry saves the scalar columns of entry. When the name changes the
// entry joins another name group; its photos lose the primary flag if that
// group already has a primary photo.
func (r *entryRepository) UpdateEntry(ctx context.Context, entry *entities.Entry) (err error) {
	defer r.observe("update_entry", time.Now(), &err)

	if entry == nil || entry.ID == 0 {
		return invalidInput("entry id is required")
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var current entities.Entry
		if err := tx.First(&current, entry.ID).Error; err != nil {
			if isRecordNotFound(err) {
				return notFound(ErrEntryNotFound, "entry", entry.ID)
			}
			return err
		}
		entry.CollectionID = current.CollectionID
		if err := r.validateEntry(tx, entry); err != nil {
			return err
		}

		if err := tx.Model(&entities.Entry{ID: entry.ID}).Updates(map[string]any{
			"name":        entry.Name,
			"observed_at": entry.ObservedAt,
			"location":    entry.Location,
			"latitude":    entry.Latitude,
			"longitude":   entry.Longitude,
			"tier":        entry.Tier,
			"notes":       entry.Notes,
		}).Error; err != nil {
			return err
		}

		if entry.Name == current.Name {
			return nil
		}
		var groupPrimaries int64
		if err := tx.Model(&entities.Photo{}).
			Joins("JOIN "+tableEntries+" e ON e.id = photos.entry_id").
			Where("e.collection_id = ? AND e.name = ? AND e.id <> ? AND photos.is_primary = ?",
				entry.CollectionID, entry.Name, entry.ID, true).
			Count(&groupPrimaries).Error; err != nil {
			return err
		}
		if groupPrimaries == 0 {
			return nil
		}
		return tx.Model(&entities.Photo{}).
			Where("entry_id = ? AND is_primary = ?", entry.ID, true).
			Update("is_primary", false).Error
	})
	return dbError("update_entry", err)
}

// DeleteEntry removes an entry and the rows it owns.
func (r *entryRepository) DeleteEntry(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_entry", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entities.Entry{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(ErrEntryNotFound, "entry", id)
		}
		for _, model := range []any{&entities.EntryTag{}, &entities.EntryAttributeValue{}, &entities.Photo{}} {
			if err := tx.Where("entry_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&entities.Entry{}, id).Error
	})
	if err == nil {
		getLogger().Debug("entry deleted", logger.Uint("entry_id", id))
	}
	return dbError("delete_entry", err)
}

// SetTags replaces the entry's tags.
func (r *entryRepository) SetTags(ctx context.Context, entryID uint, tagIDs []uint) (err error) {
	defer r.observe("set_entry_tags", time.Now(), &err)

	ids := uniqueIDs(tagIDs)
	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entities.Entry{}).Where("id = ?", entryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(ErrEntryNotFound, "entry", entryID)
		}

		if len(ids) > 0 {
			var found int64
			if err := tx.Model(&entities.Tag{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
				return err
			}
			if found != int64(len(ids)) {
				return notFound(ErrTagNotFound, "tag", 0)
			}
		}

		if err := tx.Where("entry_id = ?", entryID).Delete(&entities.EntryTag{}).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		links := make([]entities.EntryTag, 0, len(ids))
		for _, id := range ids {
			links = append(links, entities.EntryTag{EntryID: entryID, TagID: id})
		}
		return tx.Create(&links).Error
	})
	return dbError("set_entry_tags", err)
}

// UniqueEntryNames returns the distinct names of a collection's entries.
func (r *entryRepository) UniqueEntryNames(ctx context.Context, collectionID uint) ([]string, error) {
	names := []string{}
	err := r.conn(ctx).Model(&entities.Entry{}).
		Where("collection_id = ?", collectionID).
		Distinct().
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, dbError("unique_entry_names", err)
	}
	return names, nil
}

type tierCount struct {
	Tier  *string
	Total int64
}

// TierCounts counts entries per stored tier.
func (r *entryRepository) TierCounts(ctx context.Context, collectionID uint) (map[string]int64, error) {
	var rows []tierCount
	err := r.conn(ctx).Model(&entities.Entry{}).
		Select("tier, COUNT(*) AS total").
		Where("collection_id = ?", collectionID).
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError("tier_counts", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := NoneTier
		if row.Tier != nil {
			key = *row.Tier
		}
		out[key] += row.Total
	}
	return out, nil
}

// EntriesByName returns a name group's entries, newest first.
func (r *entryRepository) EntriesByName(ctx context.Context, collectionID uint, name string) ([]*entities.Entry, error) {
	entries := []*entities.Entry{}
	err := r.conn(ctx).
		Where("collection_id = ? AND name = ?", collectionID, name).
		Order("observed_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, dbError("entries_by_name", err)
	}
	return entries, nil
}

// EntriesWithCoordinates returns mappable entries.
func (r *entryRepository) EntriesWithCoordinates(ctx context.Context, collectionID uint, tier, name string) ([]*entities.Entry, error) {
	db, err := r.filtered(ctx, collectionID, Filter{Tier: tier, EntryName: name})
	if err != nil {
		return nil, dbError("entries_with_coordinates", err)
	}

	entries := []*entities.Entry{}
	err = db.Where("entries.latitude IS NOT NULL AND entries.longitude IS NOT NULL").
		Order("entries.observed_at DESC, entries.id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, dbError("entries_with_coordinates", err)
	}
	return entries, nil
}
