package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// tagRepository implements TagRepository.
type tagRepository struct {
	base
}

// CreateTag returns the existing tag or creates it.
func (r *tagRepository) CreateTag(ctx context.Context, name, category string) (_ *entities.Tag, err error) {
	defer r.observe("create_tag", time.Now(), &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("tag name is required")
	}

	var tag entities.Tag
	err = r.atomic(ctx, func(tx *gorm.DB) error {
		row := entities.Tag{Name: name, Category: strings.TrimSpace(category)}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		// the id of a skipped insert is not reliable, so read the row back
		return tx.Where("name = ?", name).First(&tag).Error
	})
	if err != nil {
		return nil, dbError("create_tag", err)
	}
	return &tag, nil
}

// GetTag retrieves a tag by id.
func (r *tagRepository) GetTag(ctx context.Context, id uint) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.conn(ctx).First(&tag, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrTagNotFound, "tag", id)
	}
	if err != nil {
		return nil, dbError("get_tag", err)
	}
	return &tag, nil
}

// GetTagByName retrieves a tag by name.
func (r *tagRepository) GetTagByName(ctx context.Context, name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.conn(ctx).Where("name = ?", strings.TrimSpace(name)).First(&tag).Error
	if isRecordNotFound(err) {
		return nil, notFoundByName(ErrTagNotFound, "tag", name)
	}
	if err != nil {
		return nil, dbError("get_tag", err)
	}
	return &tag, nil
}

// ListTags returns every tag.
func (r *tagRepository) ListTags(ctx context.Context) ([]*entities.Tag, error) {
	tags := []*entities.Tag{}
	if err := r.conn(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, dbError("list_tags", err)
	}
	return tags, nil
}

// TagsByCategory groups tags by category.
func (r *tagRepository) TagsByCategory(ctx context.Context) (map[string][]*entities.Tag, error) {
	tags, err := r.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*entities.Tag)
	for _, t := range tags {
		out[t.Category] = append(out[t.Category], t)
	}
	return out, nil
}

// UpdateTag changes a tag's name or category.
func (r *tagRepository) UpdateTag(ctx context.Context, id uint, name, category *string) error {
	updates := map[string]any{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return invalidInput("tag name is required")
		}
		updates["name"] = n
	}
	if category != nil {
		updates["category"] = strings.TrimSpace(*category)
	}

	err := r.atomic(ctx, func(tx *gorm.DB) error {
		var tag entities.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			if isRecordNotFound(err) {
				return notFound(ErrTagNotFound, "tag", id)
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if n, ok := updates["name"].(string); ok && n != tag.Name {
			var taken int64
			if err := tx.Model(&entities.Tag{}).Where("name = ? AND id <> ?", n, id).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return conflict(ErrTagExists, n)
			}
		}
		return tx.Model(&entities.Tag{}).Where("id = ?", id).Updates(updates).Error
	})
	return dbError("update_tag", err)
}

// DeleteTag removes a tag, its entry links and its relations.
func (r *tagRepository) DeleteTag(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_tag", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entities.Tag{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(ErrTagNotFound, "tag", id)
		}
		if err := tx.Where("tag_id = ?", id).Delete(&entities.EntryTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ? OR parent_tag_id = ?", id, id).Delete(&entities.TagRelation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Tag{}, id).Error
	})
	return dbError("delete_tag", err)
}

// TagsForEntry returns an entry's tags.
func (r *tagRepository) TagsForEntry(ctx context.Context, entryID uint) ([]*entities.Tag, error) {
	tags := []*entities.Tag{}
	err := r.conn(ctx).
		Joins("JOIN "+tableEntryTags+" et ON et.tag_id = tags.id").
		Where("et.entry_id = ?", entryID).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, dbError("tags_for_entry", err)
	}
	return tags, nil
}

// AddRelation records a parent to child edge, rejecting cycles.
func (r *tagRepository) AddRelation(ctx context.Context, childID, parentID uint) (err error) {
	defer r.observe("add_tag_relation", time.Now(), &err)

	if childID == parentID {
		return conflictCycle(childID, parentID)
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&entities.Tag{}).Where("id IN ?", []uint{childID, parentID}).Count(&found).Error; err != nil {
			return err
		}
		if found != 2 {
			return notFound(ErrTagNotFound, "tag", 0)
		}

		// parent must not already sit below child
		reachable, err := descends(tx, childID, parentID)
		if err != nil {
			return err
		}
		if reachable {
			return conflictCycle(childID, parentID)
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entities.TagRelation{TagID: childID, ParentTagID: parentID}).Error
	})
	if err != nil {
		return dbError("add_tag_relation", err)
	}
	getLogger().Debug("tag relation added",
		logger.Uint("tag_id", childID),
		logger.Uint("parent_tag_id", parentID))
	return nil
}

func conflictCycle(childID, parentID uint) error {
	return errors.New(fmt.Errorf("%w: tag %d under %d", ErrTagCycle, childID, parentID)).
		Component(component).
		Category(errors.CategoryReferential).
		Build()
}

// descends reports whether target is reachable from root following
// parent to child edges.
func descends(tx *gorm.DB, root, target uint) (bool, error) {
	visited := map[uint]bool{root: true}
	frontier := []uint{root}
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&entities.TagRelation{}).
			Where("parent_tag_id IN ?", frontier).
			Pluck("tag_id", &next).Error; err != nil {
			return false, err
		}
		frontier = frontier[:0]
		for _, id := range next {
			if id == target {
				return true, nil
			}
			if !visited[id] {
				visited[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	return false, nil
}

// RemoveRelation deletes an edge.
func (r *tagRepository) RemoveRelation(ctx context.Context, childID, parentID uint) error {
	err := r.conn(ctx).
		Where("tag_id = ? AND parent_tag_id = ?", childID, parentID).
		Delete(&entities.TagRelation{}).Error
	return dbError("remove_tag_relation", err)
}

// Parents returns a tag's direct parents.
func (r *tagRepository) Parents(ctx context.Context, id uint) ([]*entities.Tag, error) {
	tags := []*entities.Tag{}
	err := r.conn(ctx).
		Joins("JOIN "+tableTagRelations+" tr ON tr.parent_tag_id = tags.id").
		Where("tr.tag_id = ?", id).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, dbError("tag_parents", err)
	}
	return tags, nil
}

// Children returns a tag's direct children.
func (r *tagRepository) Children(ctx context.Context, id uint) ([]*entities.Tag, error) {
	tags := []*entities.Tag{}
	err := r.conn(ctx).
		Joins("JOIN "+tableTagRelations+" tr ON tr.tag_id = tags.id").
		Where("tr.parent_tag_id = ?", id).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, dbError("tag_children", err)
	}
	return tags, nil
}

// Forest loads every tag and relation.
func (r *tagRepository) Forest(ctx context.Context) (*TagForest, error) {
	tags, err := r.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	var relations []entities.TagRelation
	if err := r.conn(ctx).Order("id ASC").Find(&relations).Error; err != nil {
		return nil, dbError("tag_forest", err)
	}

	forest := NewArena[*entities.Tag]()
	for _, t := range tags {
		forest.Add(t.ID, t)
	}
	for _, rel := range relations {
		forest.Link(rel.ParentTagID, rel.TagID)
	}
	return forest, nil
}
