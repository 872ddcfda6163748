package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/fieldtype"
	"github.com/tphakala/lifelist/internal/logger"
)

// collectionRepository implements CollectionRepository.
type collectionRepository struct {
	base
	catalog *conf.Catalog
	tiers   *tierRepository
}

func orderedTiers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateCollection creates a collection and snapshots its type's template.
func (r *collectionRepository) CreateCollection(ctx context.Context, name, typeName, classificationLabel string) (_ *entities.Collection, err error) {
	defer r.observe("create_collection", time.Now(), &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("collection name is required")
	}

	ct, err := r.GetTypeByName(ctx, typeName)
	if err != nil {
		return nil, err
	}
	tmpl := r.catalog.Lookup(ct.Name)

	coll := &entities.Collection{
		Name:                name,
		CollectionTypeID:    ct.ID,
		ClassificationLabel: strings.TrimSpace(classificationLabel),
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entities.Collection{}).Where("name = ?", name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflict(ErrCollectionExists, name)
		}

		if err := tx.Create(coll).Error; err != nil {
			if isDuplicate(err) {
				return conflict(ErrCollectionExists, name)
			}
			return err
		}

		tierNames := make([]string, 0, len(ct.Tiers))
		for _, t := range ct.Tiers {
			tierNames = append(tierNames, t.Name)
		}
		if len(tierNames) == 0 {
			tierNames = tmpl.Tiers
		}
		if err := insertTiers(tx, coll.ID, tierNames); err != nil {
			return err
		}

		if len(tmpl.DefaultFields) == 0 {
			return nil
		}
		fields := make([]entities.CustomField, 0, len(tmpl.DefaultFields))
		for i, f := range tmpl.DefaultFields {
			fields = append(fields, entities.CustomField{
				CollectionID: coll.ID,
				Name:         f.Name,
				Kind:         f.Kind(),
				Required:     f.Required,
				DisplayOrder: i,
				RatingMax:    fieldtype.MaxOf(f.Type),
				Options:      optionRows(fieldtype.OptionsOf(f.Type)),
			})
		}
		return tx.Create(&fields).Error
	})
	if err != nil {
		return nil, dbError("create_collection", err)
	}

	coll.Type = ct
	getLogger().Info("collection created",
		logger.Uint("collection_id", coll.ID),
		logger.String("name", coll.Name),
		logger.String("type", ct.Name))
	return coll, nil
}

func optionRows(opts []fieldtype.Option) []entities.FieldOption {
	rows := make([]entities.FieldOption, 0, len(opts))
	for i, o := range opts {
		rows = append(rows, entities.FieldOption{Value: o.Value, Label: o.Label, Position: i})
	}
	return rows
}

// GetCollection retrieves a collection with its type.
func (r *collectionRepository) GetCollection(ctx context.Context, id uint) (*entities.Collection, error) {
	var coll entities.Collection
	err := r.conn(ctx).Preload("Type").First(&coll, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrCollectionNotFound, "collection", id)
	}
	if err != nil {
		return nil, dbError("get_collection", err)
	}
	return &coll, nil
}

// GetCollectionByName retrieves a collection by its unique name.
func (r *collectionRepository) GetCollectionByName(ctx context.Context, name string) (*entities.Collection, error) {
	var coll entities.Collection
	err := r.conn(ctx).Preload("Type").Where("name = ?", strings.TrimSpace(name)).First(&coll).Error
	if isRecordNotFound(err) {
		return nil, notFoundByName(ErrCollectionNotFound, "collection", name)
	}
	if err != nil {
		return nil, dbError("get_collection", err)
	}
	return &coll, nil
}

// ListCollections returns every collection with type name and entry count.
func (r *collectionRepository) ListCollections(ctx context.Context) (_ []CollectionSummary, err error) {
	defer r.observe("list_collections", time.Now(), &err)

	rows := []CollectionSummary{}
	err = r.conn(ctx).Table(tableCollections + " AS c").
		Select("c.id, c.name, ct.name AS type_name, c.classification_label, c.created_at, " +
			"(SELECT COUNT(*) FROM " + tableEntries + " e WHERE e.collection_id = c.id) AS entry_count").
		Joins("LEFT JOIN " + tableCollectionTypes + " ct ON ct.id = c.collection_type_id").
		Order("c.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError("list_collections", err)
	}
	return rows, nil
}

// RenameCollection changes a collection's name.
func (r *collectionRepository) RenameCollection(ctx context.Context, id uint, name string) (err error) {
	defer r.observe("rename_collection", time.Now(), &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return invalidInput("collection name is required")
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&entities.Collection{}).Where("name = ? AND id <> ?", name, id).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return conflict(ErrCollectionExists, name)
		}
		result := tx.Model(&entities.Collection{}).Where("id = ?", id).Update("name", name)
		if result.Error != nil {
			if isDuplicate(result.Error) {
				return conflict(ErrCollectionExists, name)
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.missing(tx, id)
		}
		return nil
	})
	return dbError("rename_collection", err)
}

// missing distinguishes "no row" from "row unchanged" after an update.
func (r *collectionRepository) missing(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&entities.Collection{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound(ErrCollectionNotFound, "collection", id)
	}
	return nil
}

// SetClassificationLabel updates the free-text classification label.
func (r *collectionRepository) SetClassificationLabel(ctx context.Context, id uint, label string) error {
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&entities.Collection{}).Where("id = ?", id).
			Update("classification_label", strings.TrimSpace(label))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.missing(tx, id)
		}
		return nil
	})
	return dbError("set_classification_label", err)
}

// DeleteCollection removes a collection and everything it owns. Child rows
// are deleted explicitly so the result does not depend on the backend
// enforcing foreign keys.
func (r *collectionRepository) DeleteCollection(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_collection", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var coll entities.Collection
		if err := tx.Select("id", "name").First(&coll, id).Error; err != nil {
			if isRecordNotFound(err) {
				return notFound(ErrCollectionNotFound, "collection", id)
			}
			return err
		}

		entryIDs := tx.Model(&entities.Entry{}).Select("id").Where("collection_id = ?", id)
		fieldIDs := tx.Model(&entities.CustomField{}).Select("id").Where("collection_id = ?", id)
		classIDs := tx.Model(&entities.Classification{}).Select("id").Where("collection_id = ?", id)

		steps := []struct {
			model any
			query string
			arg   any
		}{
			{&entities.EntryTag{}, "entry_id IN (?)", entryIDs},
			{&entities.EntryAttributeValue{}, "entry_id IN (?)", entryIDs},
			{&entities.Photo{}, "entry_id IN (?)", entryIDs},
			{&entities.Entry{}, "collection_id = ?", id},
			{&entities.FieldOption{}, "field_id IN (?)", fieldIDs},
			{&entities.FieldDependency{}, "field_id IN (?)", fieldIDs},
			{&entities.FieldDependency{}, "parent_field_id IN (?)", fieldIDs},
			{&entities.CustomField{}, "collection_id = ?", id},
			{&entities.ClassificationEntry{}, "classification_id IN (?)", classIDs},
			{&entities.Classification{}, "collection_id = ?", id},
			{&entities.Tier{}, "collection_id = ?", id},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&entities.Collection{}, id).Error; err != nil {
			return err
		}
		getLogger().Info("collection deleted",
			logger.Uint("collection_id", id),
			logger.String("name", coll.Name))
		return nil
	})
	if err == nil {
		r.tiers.invalidate(id)
	}
	return dbError("delete_collection", err)
}

// ListTypes returns every collection type with ordered tiers.
func (r *collectionRepository) ListTypes(ctx context.Context) ([]*entities.CollectionType, error) {
	types := []*entities.CollectionType{}
	err := r.conn(ctx).Preload("Tiers", orderedTiers).Order("id ASC").Find(&types).Error
	if err != nil {
		return nil, dbError("list_types", err)
	}
	return types, nil
}

// GetTypeByName retrieves a collection type by name.
func (r *collectionRepository) GetTypeByName(ctx context.Context, name string) (*entities.CollectionType, error) {
	var ct entities.CollectionType
	err := r.conn(ctx).Preload("Tiers", orderedTiers).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&ct).Error
	if isRecordNotFound(err) {
		return nil, notFoundByName(ErrTypeNotFound, "collection_type", name)
	}
	if err != nil {
		return nil, dbError("get_type", err)
	}
	return &ct, nil
}

// EnsureType returns the named type, creating it from the catalog if needed.
func (r *collectionRepository) EnsureType(ctx context.Context, name string) (*entities.CollectionType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("collection type name is required")
	}

	ct, err := r.GetTypeByName(ctx, name)
	if err == nil {
		return ct, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	tmpl := r.catalog.Lookup(name)
	ct = &entities.CollectionType{
		Name:            tmpl.Name,
		Description:     tmpl.Description,
		Icon:            tmpl.Icon,
		EntryTerm:       tmpl.EntryTerm,
		ObservationTerm: tmpl.ObservationTerm,
	}
	for i, tier := range tmpl.Tiers {
		ct.Tiers = append(ct.Tiers, entities.CollectionTypeTier{Name: tier, Position: i})
	}

	if err := r.atomic(ctx, func(tx *gorm.DB) error {
		return tx.Create(ct).Error
	}); err != nil {
		if isDuplicate(err) {
			return r.GetTypeByName(ctx, name)
		}
		return nil, dbError("create_type", err)
	}
	getLogger().Info("collection type created", logger.String("type", ct.Name))
	return ct, nil
}
