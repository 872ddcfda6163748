package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/fieldtype"
	"github.com/tphakala/lifelist/internal/logger"
)

// fieldRepository implements FieldRepository.
type fieldRepository struct {
	base
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func loadFields(db *gorm.DB, collectionID uint) ([]*entities.CustomField, error) {
	fields := []*entities.CustomField{}
	err := db.Preload("Options", orderedOptions).
		Preload("Dependency").
		Where("collection_id = ?", collectionID).
		Order("display_order ASC, id ASC").
		Find(&fields).Error
	return fields, err
}

// FieldsFor returns the collection's fields in display order.
func (r *fieldRepository) FieldsFor(ctx context.Context, collectionID uint) ([]*entities.CustomField, error) {
	fields, err := loadFields(r.conn(ctx), collectionID)
	if err != nil {
		return nil, dbError("fields_for", err)
	}
	return fields, nil
}

func getField(db *gorm.DB, id uint) (*entities.CustomField, error) {
	var field entities.CustomField
	err := db.Preload("Options", orderedOptions).Preload("Dependency").First(&field, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrFieldNotFound, "custom_field", id)
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

// GetField retrieves one field.
func (r *fieldRepository) GetField(ctx context.Context, id uint) (*entities.CustomField, error) {
	field, err := getField(r.conn(ctx), id)
	if err != nil {
		return nil, dbError("get_field", err)
	}
	return field, nil
}

// CreateField adds a field to a collection.
func (r *fieldRepository) CreateField(ctx context.Context, collectionID uint, spec FieldSpec) (_ *entities.CustomField, err error) {
	defer r.observe("create_field", time.Now(), &err)

	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, invalidInput("field name is required")
	}
	if spec.Type == nil {
		return nil, invalidInput("field %q has no type", name)
	}

	field := &entities.CustomField{
		CollectionID: collectionID,
		Name:         name,
		Kind:         spec.Type.Kind(),
		Required:     spec.Required,
		RatingMax:    fieldtype.MaxOf(spec.Type),
		Options:      optionRows(fieldtype.OptionsOf(spec.Type)),
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var coll int64
		if err := tx.Model(&entities.Collection{}).Where("id = ?", collectionID).Count(&coll).Error; err != nil {
			return err
		}
		if coll == 0 {
			return notFound(ErrCollectionNotFound, "collection", collectionID)
		}

		var existing int64
		if err := tx.Model(&entities.CustomField{}).
			Where("collection_id = ? AND name = ?", collectionID, name).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflict(ErrFieldExists, name)
		}

		if spec.DisplayOrder != nil {
			field.DisplayOrder = *spec.DisplayOrder
		} else {
			var last *int
			if err := tx.Model(&entities.CustomField{}).
				Where("collection_id = ?", collectionID).
				Select("MAX(display_order)").
				Scan(&last).Error; err != nil {
				return err
			}
			if last != nil {
				field.DisplayOrder = *last + 1
			}
		}

		if err := tx.Create(field).Error; err != nil {
			if isDuplicate(err) {
				return conflict(ErrFieldExists, name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, dbError("create_field", err)
	}
	return field, nil
}

// UpdateField applies the non-nil members of upd.
func (r *fieldRepository) UpdateField(ctx context.Context, id uint, upd FieldUpdate) error {
	updates := map[string]any{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return invalidInput("field name is required")
		}
		updates["name"] = name
	}
	if upd.Required != nil {
		updates["required"] = *upd.Required
	}
	if upd.DisplayOrder != nil {
		updates["display_order"] = *upd.DisplayOrder
	}
	if upd.RatingMax != nil {
		if *upd.RatingMax < 1 {
			return invalidInput("rating maximum must be positive")
		}
		updates["rating_max"] = *upd.RatingMax
	}

	err := r.atomic(ctx, func(tx *gorm.DB) error {
		field, err := getField(tx, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if _, ok := updates["rating_max"]; ok && field.Kind != fieldtype.KindRating {
			return invalidInput("field %q is not a rating field", field.Name)
		}
		if name, ok := updates["name"].(string); ok && name != field.Name {
			var taken int64
			if err := tx.Model(&entities.CustomField{}).
				Where("collection_id = ? AND name = ? AND id <> ?", field.CollectionID, name, id).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return conflict(ErrFieldExists, name)
			}
		}
		return tx.Model(&entities.CustomField{}).Where("id = ?", id).Updates(updates).Error
	})
	return dbError("update_field", err)
}

// DeleteField removes a field and everything that references it.
func (r *fieldRepository) DeleteField(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_field", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		if _, err := getField(tx, id); err != nil {
			return err
		}
		if err := tx.Where("field_id = ?", id).Delete(&entities.EntryAttributeValue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("field_id = ?", id).Delete(&entities.FieldOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("field_id = ? OR parent_field_id = ?", id, id).Delete(&entities.FieldDependency{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.CustomField{}, id).Error
	})
	return dbError("delete_field", err)
}

// SetOptions replaces the options of a choice field.
func (r *fieldRepository) SetOptions(ctx context.Context, fieldID uint, options []fieldtype.Option) error {
	rows := make([]entities.FieldOption, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		value := strings.TrimSpace(o.Value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		rows = append(rows, entities.FieldOption{FieldID: fieldID, Value: value, Label: o.Label, Position: len(rows)})
	}

	err := r.atomic(ctx, func(tx *gorm.DB) error {
		field, err := getField(tx, fieldID)
		if err != nil {
			return err
		}
		if field.Kind != fieldtype.KindChoice {
			return invalidInput("field %q is not a choice field", field.Name)
		}
		if err := tx.Where("field_id = ?", fieldID).Delete(&entities.FieldOption{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	return dbError("set_options", err)
}

// SetDependency stores or replaces the field's visibility rule.
func (r *fieldRepository) SetDependency(ctx context.Context, fieldID, parentFieldID uint, condition, value string) error {
	switch condition {
	case entities.ConditionEquals, entities.ConditionNotEquals, entities.ConditionNotEmpty:
	default:
		return invalidInput("unknown dependency condition %q", condition)
	}
	if fieldID == parentFieldID {
		return invalidInput("a field cannot depend on itself")
	}

	err := r.atomic(ctx, func(tx *gorm.DB) error {
		field, err := getField(tx, fieldID)
		if err != nil {
			return err
		}
		parent, err := getField(tx, parentFieldID)
		if err != nil {
			return err
		}
		if field.CollectionID != parent.CollectionID {
			return invalidInput("fields %d and %d belong to different collections", fieldID, parentFieldID)
		}

		// walk up from the parent; reaching fieldID would make visibility circular
		seen := map[uint]bool{fieldID: true}
		for next := parent.Dependency; next != nil; {
			if seen[next.ParentFieldID] {
				return invalidInput("dependency of field %q would be circular", field.Name)
			}
			seen[next.ParentFieldID] = true
			var dep entities.FieldDependency
			err := tx.Where("field_id = ?", next.ParentFieldID).First(&dep).Error
			if isRecordNotFound(err) {
				break
			}
			if err != nil {
				return err
			}
			next = &dep
		}

		dep := entities.FieldDependency{
			FieldID:       fieldID,
			ParentFieldID: parentFieldID,
			Condition:     condition,
			Value:         value,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"parent_field_id", "condition", "value"}),
		}).Create(&dep).Error
	})
	return dbError("set_dependency", err)
}

// ClearDependency removes the field's visibility rule.
func (r *fieldRepository) ClearDependency(ctx context.Context, fieldID uint) error {
	err := r.conn(ctx).Where("field_id = ?", fieldID).Delete(&entities.FieldDependency{}).Error
	return dbError("clear_dependency", err)
}

// SetAttributes fully replaces the entry's attribute values.
func (r *fieldRepository) SetAttributes(ctx context.Context, entryID uint, values map[uint]string) (err error) {
	defer r.observe("set_attributes", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		fields, err := entryFields(tx, entryID)
		if err != nil {
			return err
		}
		byID := make(map[uint]*entities.CustomField, len(fields))
		for _, f := range fields {
			byID[f.ID] = f
		}

		rows := make([]entities.EntryAttributeValue, 0, len(values))
		for fieldID, value := range values {
			if strings.TrimSpace(value) == "" {
				continue
			}
			field, ok := byID[fieldID]
			if !ok {
				return invalidInput("field %d does not belong to the entry's collection", fieldID)
			}
			typ, err := field.Type()
			if err != nil {
				return err
			}
			if err := typ.Validate(value); err != nil {
				return invalidInput("field %q: %v", field.Name, err)
			}
			rows = append(rows, entities.EntryAttributeValue{EntryID: entryID, FieldID: fieldID, Value: value})
		}

		if err := tx.Where("entry_id = ?", entryID).Delete(&entities.EntryAttributeValue{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}, {Name: "field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return dbError("set_attributes", err)
	}
	getLogger().Trace("attributes replaced", logger.Uint("entry_id", entryID), logger.Int("values", len(values)))
	return nil
}

// SetAttributesByName resolves field names and calls SetAttributes.
func (r *fieldRepository) SetAttributesByName(ctx context.Context, entryID uint, values map[string]string) error {
	fields, err := entryFields(r.conn(ctx), entryID)
	if err != nil {
		return dbError("set_attributes", err)
	}
	byName := make(map[string]uint, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.ID
	}

	byID := make(map[uint]string, len(values))
	for name, value := range values {
		id, ok := byName[strings.TrimSpace(name)]
		if !ok {
			if strings.TrimSpace(value) == "" {
				continue
			}
			return invalidInput("unknown field %q", name)
		}
		byID[id] = value
	}
	return r.SetAttributes(ctx, entryID, byID)
}

// entryFields loads the fields of the entry's collection.
func entryFields(db *gorm.DB, entryID uint) ([]*entities.CustomField, error) {
	var entry entities.Entry
	if err := db.Select("id", "collection_id").First(&entry, entryID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound(ErrEntryNotFound, "entry", entryID)
		}
		return nil, err
	}
	return loadFields(db, entry.CollectionID)
}

type attributeRow struct {
	Name  string
	Value string
}

// AttributesFor returns the entry's values keyed by field name.
func (r *fieldRepository) AttributesFor(ctx context.Context, entryID uint) (map[string]string, error) {
	var rows []attributeRow
	err := r.conn(ctx).Table(tableEntryAttributeValues+" AS v").
		Select("f.name AS name, v.value AS value").
		Joins("JOIN "+tableCustomFields+" f ON f.id = v.field_id").
		Where("v.entry_id = ?", entryID).
		Order("f.display_order ASC, f.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError("attributes_for", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Value
	}
	return out, nil
}
