package repository

import (
	"context"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// PhotoRepository manages photo rows. Primary photos are tracked per name
// group: all entries of one collection sharing a name have at most one
// primary photo between them.
type PhotoRepository interface {
	// AddPhoto inserts a photo for photo.EntryID. A primary photo clears
	// the flag on every other photo of the name group.
	AddPhoto(ctx context.Context, photo *entities.Photo) error

	// GetPhoto retrieves one photo. Returns ErrPhotoNotFound if not found.
	GetPhoto(ctx context.Context, id uint) (*entities.Photo, error)

	// UpdatePhoto saves the file path, coordinates, capture time and size.
	// The primary flag is changed only through SetPrimary.
	UpdatePhoto(ctx context.Context, photo *entities.Photo) error

	// DeletePhoto removes a photo row and returns it so the caller can
	// remove the stored files.
	DeletePhoto(ctx context.Context, id uint) (*entities.Photo, error)

	// SetPrimary makes the photo the single primary of its name group.
	SetPrimary(ctx context.Context, id uint) error

	// PhotosForEntry returns an entry's photos, primary first.
	PhotosForEntry(ctx context.Context, entryID uint) ([]*entities.Photo, error)

	// PhotosForName returns the photos of every entry called name in the
	// collection, primary first. primaryOnly keeps only primary photos.
	PhotosForName(ctx context.Context, collectionID uint, name string, primaryOnly bool) ([]*entities.Photo, error)
}
