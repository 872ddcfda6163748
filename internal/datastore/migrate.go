package datastore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// Models lists every entity in dependency order.
func Models() []any {
	return []any{
		&entities.CollectionType{},
		&entities.CollectionTypeTier{},
		&entities.Collection{},
		&entities.Tier{},
		&entities.CustomField{},
		&entities.FieldOption{},
		&entities.FieldDependency{},
		&entities.Tag{},
		&entities.Entry{},
		&entities.EntryTag{},
		&entities.EntryAttributeValue{},
		&entities.Photo{},
		&entities.TagRelation{},
		&entities.Classification{},
		&entities.ClassificationEntry{},
	}
}

func initialize(ctx context.Context, db *gorm.DB, catalog *conf.Catalog) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(Models()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Build()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return seedCollectionTypes(tx, catalog)
	})
}

// seedCollectionTypes makes sure every catalog type has a row. Existing rows
// are left alone so user-visible terms stay stable across catalog edits.
func seedCollectionTypes(tx *gorm.DB, catalog *conf.Catalog) error {
	for _, tmpl := range catalog.Types() {
		ct := entities.CollectionType{
			Name:            tmpl.Name,
			Description:     tmpl.Description,
			Icon:            tmpl.Icon,
			EntryTerm:       tmpl.EntryTerm,
			ObservationTerm: tmpl.ObservationTerm,
		}
		result := tx.Where("name = ?", tmpl.Name).FirstOrCreate(&ct)
		if result.Error != nil {
			return errors.New(fmt.Errorf("failed to seed collection type %s: %w", tmpl.Name, result.Error)).
				Category(errors.CategoryDatabase).
				Build()
		}
		if result.RowsAffected == 0 {
			continue
		}

		tiers := make([]entities.CollectionTypeTier, 0, len(tmpl.Tiers))
		for i, name := range tmpl.Tiers {
			tiers = append(tiers, entities.CollectionTypeTier{CollectionTypeID: ct.ID, Name: name, Position: i})
		}
		if len(tiers) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tiers).Error; err != nil {
				return errors.New(fmt.Errorf("failed to seed tiers for %s: %w", tmpl.Name, err)).
					Category(errors.CategoryDatabase).
					Build()
			}
		}
		getLogger().Debug("seeded collection type", logger.String("type", tmpl.Name), logger.Int("tiers", len(tiers)))
	}
	return nil
}
