package repository

import (
	"context"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/logger"
)

// classificationRepository implements ClassificationRepository.
type classificationRepository struct {
	base
}

// CreateClassification inserts a classification and settles the active flag.
func (r *classificationRepository) CreateClassification(ctx context.Context, c *entities.Classification) (err error) {
	defer r.observe("create_classification", time.Now(), &err)

	if c == nil {
		return invalidInput("classification is nil")
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalidInput("classification name is required")
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var coll int64
		if err := tx.Model(&entities.Collection{}).Where("id = ?", c.CollectionID).Count(&coll).Error; err != nil {
			return err
		}
		if coll == 0 {
			return notFound(ErrCollectionNotFound, "collection", c.CollectionID)
		}

		var active int64
		if err := tx.Model(&entities.Classification{}).
			Where("collection_id = ? AND is_active = ?", c.CollectionID, true).
			Count(&active).Error; err != nil {
			return err
		}
		switch {
		case active == 0:
			// the first classification of a collection is always active
			c.IsActive = true
		case c.IsActive:
			if err := deactivateSiblings(tx, c.CollectionID); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(c).Error
	})
	if err != nil {
		return dbError("create_classification", err)
	}
	getLogger().Info("classification created",
		logger.Uint("classification_id", c.ID),
		logger.Uint("collection_id", c.CollectionID),
		logger.Bool("active", c.IsActive))
	return nil
}

func deactivateSiblings(tx *gorm.DB, collectionID uint) error {
	return tx.Model(&entities.Classification{}).
		Where("collection_id = ? AND is_active = ?", collectionID, true).
		Update("is_active", false).Error
}

func getClassification(db *gorm.DB, id uint) (*entities.Classification, error) {
	var c entities.Classification
	err := db.First(&c, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrClassificationNotFound, "classification", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClassification retrieves a classification.
func (r *classificationRepository) GetClassification(ctx context.Context, id uint) (*entities.Classification, error) {
	c, err := getClassification(r.conn(ctx), id)
	if err != nil {
		return nil, dbError("get_classification", err)
	}
	return c, nil
}

// ListClassifications returns a collection's classifications.
func (r *classificationRepository) ListClassifications(ctx context.Context, collectionID uint) ([]*entities.Classification, error) {
	list := []*entities.Classification{}
	err := r.conn(ctx).
		Where("collection_id = ?", collectionID).
		Order("is_active DESC, name ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, dbError("list_classifications", err)
	}
	return list, nil
}

// ActiveClassification returns the active classification of a collection.
func (r *classificationRepository) ActiveClassification(ctx context.Context, collectionID uint) (*entities.Classification, error) {
	var c entities.Classification
	err := r.conn(ctx).
		Where("collection_id = ? AND is_active = ?", collectionID, true).
		First(&c).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrClassificationNotFound, "classification", 0)
	}
	if err != nil {
		return nil, dbError("active_classification", err)
	}
	return &c, nil
}

// SetActive activates one classification of a collection.
func (r *classificationRepository) SetActive(ctx context.Context, id uint) error {
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		c, err := getClassification(tx, id)
		if err != nil {
			return err
		}
		if err := deactivateSiblings(tx, c.CollectionID); err != nil {
			return err
		}
		return tx.Model(&entities.Classification{}).Where("id = ?", id).Update("is_active", true).Error
	})
	return dbError("set_active_classification", err)
}

// DeleteClassification removes an inactive classification.
func (r *classificationRepository) DeleteClassification(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_classification", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		c, err := getClassification(tx, id)
		if err != nil {
			return err
		}
		if c.IsActive {
			return referential(ErrActiveClassification, "classification", id)
		}
		if err := tx.Where("classification_id = ?", id).Delete(&entities.ClassificationEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Classification{}, id).Error
	})
	return dbError("delete_classification", err)
}

func getClassificationEntry(db *gorm.DB, id uint) (*entities.ClassificationEntry, error) {
	var e entities.ClassificationEntry
	err := db.First(&e, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrClassificationEntryNotFound, "classification_entry", id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// checkParent verifies parentID exists in classificationID.
func checkParent(tx *gorm.DB, classificationID, parentID uint) error {
	parent, err := getClassificationEntry(tx, parentID)
	if err != nil {
		return err
	}
	if parent.ClassificationID != classificationID {
		return referential(ErrParentMismatch, "classification_entry", parentID)
	}
	return nil
}

// CreateEntry inserts a classification entry.
func (r *classificationRepository) CreateEntry(ctx context.Context, e *entities.ClassificationEntry) (err error) {
	defer r.observe("create_classification_entry", time.Now(), &err)

	if e == nil {
		return invalidInput("classification entry is nil")
	}
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return invalidInput("classification entry name is required")
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		if _, err := getClassification(tx, e.ClassificationID); err != nil {
			return err
		}
		if e.ParentID != nil {
			if err := checkParent(tx, e.ClassificationID, *e.ParentID); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(e).Error
	})
	return dbError("create_classification_entry", err)
}

// SetParent re-links an entry, refusing parents from other classifications
// and parents below the entry itself.
func (r *classificationRepository) SetParent(ctx context.Context, entryID uint, parentID *uint) error {
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		entry, err := getClassificationEntry(tx, entryID)
		if err != nil {
			return err
		}
		if parentID != nil {
			if *parentID == entryID {
				return invalidInput("entry %d cannot be its own parent", entryID)
			}
			if err := checkParent(tx, entry.ClassificationID, *parentID); err != nil {
				return err
			}
			// walk up from the new parent; meeting the entry means a cycle
			for next := parentID; next != nil; {
				if *next == entryID {
					return invalidInput("entry %d cannot be placed below itself", entryID)
				}
				ancestor, err := getClassificationEntry(tx, *next)
				if err != nil {
					return err
				}
				next = ancestor.ParentID
			}
		}
		return tx.Model(&entities.ClassificationEntry{}).Where("id = ?", entryID).Update("parent_id", parentID).Error
	})
	return dbError("set_classification_parent", err)
}

// GetEntry retrieves a classification entry.
func (r *classificationRepository) GetEntry(ctx context.Context, id uint) (*entities.ClassificationEntry, error) {
	e, err := getClassificationEntry(r.conn(ctx), id)
	if err != nil {
		return nil, dbError("get_classification_entry", err)
	}
	return e, nil
}

// ListEntries returns a window of a classification's entries.
func (r *classificationRepository) ListEntries(ctx context.Context, classificationID uint, page Page) ([]*entities.ClassificationEntry, error) {
	db := r.conn(ctx).Where("classification_id = ?", classificationID).Order("name ASC, id ASC")
	if page.Offset > 0 {
		db = db.Offset(page.Offset)
	}
	switch {
	case page.Limit > 0:
		db = db.Limit(page.Limit)
	case page.Offset > 0:
		db = db.Limit(math.MaxInt32)
	}

	list := []*entities.ClassificationEntry{}
	if err := db.Find(&list).Error; err != nil {
		return nil, dbError("list_classification_entries", err)
	}
	return list, nil
}

// CountEntries counts a classification's entries.
func (r *classificationRepository) CountEntries(ctx context.Context, classificationID uint) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&entities.ClassificationEntry{}).
		Where("classification_id = ?", classificationID).
		Count(&n).Error
	if err != nil {
		return 0, dbError("count_classification_entries", err)
	}
	return n, nil
}

// Search ranks name prefix matches before other substring matches.
func (r *classificationRepository) Search(ctx context.Context, classificationID uint, text string, limit int) (_ []*entities.ClassificationEntry, err error) {
	defer r.observe("search_classification", time.Now(), &err)

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	p := likePattern(text)

	list := []*entities.ClassificationEntry{}
	err = r.conn(ctx).
		Where("classification_id = ?", classificationID).
		Where("("+likeLower("name")+" OR "+likeLower("alternate_name")+" OR "+likeLower("category")+")", p, p, p).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN " + likeLower("name") + " THEN 0 ELSE 1 END",
			Vars:               []any{prefixPattern(text)},
			WithoutParentheses: true,
		}}).
		Order("name ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, dbError("search_classification", err)
	}
	return list, nil
}

// Children returns an entry's direct children.
func (r *classificationRepository) Children(ctx context.Context, entryID uint) ([]*entities.ClassificationEntry, error) {
	list := []*entities.ClassificationEntry{}
	err := r.conn(ctx).Where("parent_id = ?", entryID).Order("name ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, dbError("classification_children", err)
	}
	return list, nil
}

// Tree loads a classification into an arena in one query.
func (r *classificationRepository) Tree(ctx context.Context, classificationID uint) (*ClassificationTree, error) {
	var list []*entities.ClassificationEntry
	err := r.conn(ctx).Where("classification_id = ?", classificationID).Order("name ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, dbError("classification_tree", err)
	}

	tree := NewArena[*entities.ClassificationEntry]()
	for _, e := range list {
		tree.Add(e.ID, e)
	}
	for _, e := range list {
		if e.ParentID != nil {
			tree.Link(*e.ParentID, e.ID)
		}
	}
	return tree, nil
}
