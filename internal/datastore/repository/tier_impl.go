package repository

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/logger"
)

// tierRepository implements TierRepository. Resolved tier lists are cached
// per collection; any write drops the cached list.
type tierRepository struct {
	base
	catalog *conf.Catalog
	cache   *cache.Cache // nil when caching is disabled
}

func newTierRepository(b base, catalog *conf.Catalog, ttl time.Duration) *tierRepository {
	r := &tierRepository{base: b, catalog: catalog}
	if ttl > 0 {
		// no janitor goroutine; expired items are dropped on access
		r.cache = cache.New(ttl, 0)
	}
	return r
}

func tierCacheKey(collectionID uint) string {
	return "tiers:" + strconv.FormatUint(uint64(collectionID), 10)
}

func (r *tierRepository) invalidate(collectionID uint) {
	if r.cache != nil {
		r.cache.Delete(tierCacheKey(collectionID))
	}
}

// TiersFor returns the collection's tiers with template fallback.
func (r *tierRepository) TiersFor(ctx context.Context, collectionID uint) (_ []string, err error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(tierCacheKey(collectionID)); ok {
			r.metrics.RecordTierCache(true)
			return slices.Clone(cached.([]string)), nil
		}
		r.metrics.RecordTierCache(false)
	}

	defer r.observe("tiers_for", time.Now(), &err)

	names, err := resolveTiers(r.conn(ctx), r.catalog, collectionID)
	if err != nil {
		return nil, dbError("tiers_for", err)
	}

	// Lists read inside a scope may include uncommitted writes.
	if r.cache != nil && !datastore.InScope(ctx) {
		r.cache.SetDefault(tierCacheKey(collectionID), slices.Clone(names))
	}
	return names, nil
}

// resolveTiers reads collection tiers, then type tiers, then the catalog.
func resolveTiers(db *gorm.DB, catalog *conf.Catalog, collectionID uint) ([]string, error) {
	var coll entities.Collection
	if err := db.Preload("Type").Select("id", "collection_type_id").First(&coll, collectionID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound(ErrCollectionNotFound, "collection", collectionID)
		}
		return nil, err
	}

	var names []string
	if err := db.Model(&entities.Tier{}).
		Where("collection_id = ?", collectionID).
		Order("position ASC, id ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return names, nil
	}

	if err := db.Model(&entities.CollectionTypeTier{}).
		Where("collection_type_id = ?", coll.CollectionTypeID).
		Order("position ASC, id ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return names, nil
	}

	typeName := ""
	if coll.Type != nil {
		typeName = coll.Type.Name
	}
	return catalog.TiersFor(typeName), nil
}

// normalizeTiers trims names and drops blanks and repeats.
func normalizeTiers(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func insertTiers(tx *gorm.DB, collectionID uint, names []string) error {
	names = normalizeTiers(names)
	if len(names) == 0 {
		return nil
	}
	rows := make([]entities.Tier, 0, len(names))
	for i, n := range names {
		rows = append(rows, entities.Tier{CollectionID: collectionID, Name: n, Position: i})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// SetTiers replaces the tier set and reclassifies orphaned entries.
func (r *tierRepository) SetTiers(ctx context.Context, collectionID uint, names []string) (err error) {
	defer r.observe("set_tiers", time.Now(), &err)

	names = normalizeTiers(names)
	if slices.Contains(names, entities.UndeterminedTier) {
		return invalidInput("%q is a reserved tier name", entities.UndeterminedTier)
	}

	var rewritten int64
	err = r.atomic(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collectionID).Delete(&entities.Tier{}).Error; err != nil {
			return err
		}
		if err := insertTiers(tx, collectionID, names); err != nil {
			return err
		}

		// an empty set falls back to the template, so compare to what readers see
		valid, err := resolveTiers(tx, r.catalog, collectionID)
		if err != nil {
			return err
		}

		result := tx.Model(&entities.Entry{}).
			Where("collection_id = ? AND tier IS NOT NULL AND tier <> ? AND tier NOT IN ?",
				collectionID, entities.UndeterminedTier, valid).
			Update("tier", entities.UndeterminedTier)
		if result.Error != nil {
			return result.Error
		}
		rewritten = result.RowsAffected
		return nil
	})
	r.invalidate(collectionID)
	if err != nil {
		return dbError("set_tiers", err)
	}

	getLogger().Debug("tiers replaced",
		logger.Uint("collection_id", collectionID),
		logger.Int("tiers", len(names)),
		logger.Int64("entries_reclassified", rewritten))
	return nil
}

// AddTier appends a tier unless it already exists.
func (r *tierRepository) AddTier(ctx context.Context, collectionID uint, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, invalidInput("tier name is required")
	}
	if name == entities.UndeterminedTier {
		return false, invalidInput("%q is a reserved tier name", entities.UndeterminedTier)
	}

	added := false
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		current, err := resolveTiers(tx, r.catalog, collectionID)
		if err != nil {
			return err
		}
		if slices.Contains(current, name) {
			return nil
		}

		var explicit int64
		if err := tx.Model(&entities.Tier{}).Where("collection_id = ?", collectionID).Count(&explicit).Error; err != nil {
			return err
		}
		// materialize the fallback first so appending keeps the visible order
		if explicit == 0 {
			if err := insertTiers(tx, collectionID, current); err != nil {
				return err
			}
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entities.Tier{CollectionID: collectionID, Name: name, Position: len(current)})
		if result.Error != nil {
			return result.Error
		}
		added = result.RowsAffected > 0
		return nil
	})
	r.invalidate(collectionID)
	if err != nil {
		return false, dbError("add_tier", err)
	}
	return added, nil
}
