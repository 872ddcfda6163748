package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/logger"
)

// photoRepository implements PhotoRepository.
type photoRepository struct {
	base
}

// nameGroup selects the ids of entries sharing entryID's collection and name.
func nameGroup(tx *gorm.DB, entryID uint) (*gorm.DB, error) {
	var entry entities.Entry
	if err := tx.Select("id", "collection_id", "name").First(&entry, entryID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound(ErrEntryNotFound, "entry", entryID)
		}
		return nil, err
	}
	return tx.Model(&entities.Entry{}).
		Select("id").
		Where("collection_id = ? AND name = ?", entry.CollectionID, entry.Name), nil
}

// clearGroupPrimary drops the primary flag across the entry's name group.
func clearGroupPrimary(tx *gorm.DB, entryID uint) error {
	group, err := nameGroup(tx, entryID)
	if err != nil {
		return err
	}
	return tx.Model(&entities.Photo{}).
		Where("entry_id IN (?) AND is_primary = ?", group, true).
		Update("is_primary", false).Error
}

// AddPhoto inserts a photo row.
func (r *photoRepository) AddPhoto(ctx context.Context, photo *entities.Photo) (err error) {
	defer r.observe("add_photo", time.Now(), &err)

	if photo == nil {
		return invalidInput("photo is nil")
	}
	photo.FilePath = strings.TrimSpace(photo.FilePath)
	if photo.FilePath == "" {
		return invalidInput("photo file path is required")
	}

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		if photo.IsPrimary {
			if err := clearGroupPrimary(tx, photo.EntryID); err != nil {
				return err
			}
		} else if _, err := nameGroup(tx, photo.EntryID); err != nil {
			return err
		}
		return tx.Create(photo).Error
	})
	if err != nil {
		return dbError("add_photo", err)
	}
	getLogger().Debug("photo added",
		logger.Uint("photo_id", photo.ID),
		logger.Uint("entry_id", photo.EntryID),
		logger.Bool("primary", photo.IsPrimary))
	return nil
}

// GetPhoto retrieves one photo.
func (r *photoRepository) GetPhoto(ctx context.Context, id uint) (*entities.Photo, error) {
	var photo entities.Photo
	err := r.conn(ctx).First(&photo, id).Error
	if isRecordNotFound(err) {
		return nil, notFound(ErrPhotoNotFound, "photo", id)
	}
	if err != nil {
		return nil, dbError("get_photo", err)
	}
	return &photo, nil
}

// UpdatePhoto saves the descriptive columns of photo.
func (r *photoRepository) UpdatePhoto(ctx context.Context, photo *entities.Photo) error {
	if photo == nil || photo.ID == 0 {
		return invalidInput("photo id is required")
	}
	result := r.conn(ctx).Model(&entities.Photo{ID: photo.ID}).Updates(map[string]any{
		"file_path": photo.FilePath,
		"latitude":  photo.Latitude,
		"longitude": photo.Longitude,
		"taken_at":  photo.TakenAt,
		"width":     photo.Width,
		"height":    photo.Height,
	})
	if result.Error != nil {
		return dbError("update_photo", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetPhoto(ctx, photo.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeletePhoto removes a photo row.
func (r *photoRepository) DeletePhoto(ctx context.Context, id uint) (*entities.Photo, error) {
	var photo entities.Photo
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&photo, id).Error; err != nil {
			if isRecordNotFound(err) {
				return notFound(ErrPhotoNotFound, "photo", id)
			}
			return err
		}
		return tx.Delete(&entities.Photo{}, id).Error
	})
	if err != nil {
		return nil, dbError("delete_photo", err)
	}
	return &photo, nil
}

// SetPrimary makes the photo the primary of its name group.
func (r *photoRepository) SetPrimary(ctx context.Context, id uint) (err error) {
	defer r.observe("set_primary_photo", time.Now(), &err)

	err = r.atomic(ctx, func(tx *gorm.DB) error {
		var photo entities.Photo
		if err := tx.Select("id", "entry_id").First(&photo, id).Error; err != nil {
			if isRecordNotFound(err) {
				return notFound(ErrPhotoNotFound, "photo", id)
			}
			return err
		}
		if err := clearGroupPrimary(tx, photo.EntryID); err != nil {
			return err
		}
		return tx.Model(&entities.Photo{}).Where("id = ?", id).Update("is_primary", true).Error
	})
	return dbError("set_primary_photo", err)
}

// PhotosForEntry returns an entry's photos, primary first.
func (r *photoRepository) PhotosForEntry(ctx context.Context, entryID uint) ([]*entities.Photo, error) {
	photos := []*entities.Photo{}
	err := r.conn(ctx).
		Where("entry_id = ?", entryID).
		Order("is_primary DESC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, dbError("photos_for_entry", err)
	}
	return photos, nil
}

// PhotosForName returns the photos of a name group.
func (r *photoRepository) PhotosForName(ctx context.Context, collectionID uint, name string, primaryOnly bool) ([]*entities.Photo, error) {
	db := r.conn(ctx).
		Joins("JOIN "+tableEntries+" e ON e.id = photos.entry_id").
		Where("e.collection_id = ? AND e.name = ?", collectionID, name)
	if primaryOnly {
		db = db.Where("photos.is_primary = ?", true)
	}

	photos := []*entities.Photo{}
	if err := db.Order("photos.is_primary DESC, photos.id ASC").Find(&photos).Error; err != nil {
		return nil, dbError("photos_for_name", err)
	}
	return photos, nil
}
