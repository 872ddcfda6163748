package repository

import "github.com/tphakala/lifelist/internal/errors"

// Sentinel errors for repository operations.
var (
	// ErrCollectionNotFound indicates the requested collection does not exist.
	ErrCollectionNotFound = errors.NewStd("collection not found")

	// ErrCollectionExists indicates a collection with the same name exists.
	ErrCollectionExists = errors.NewStd("collection already exists")

	// ErrTypeNotFound indicates the requested collection type does not exist.
	ErrTypeNotFound = errors.NewStd("collection type not found")

	// ErrEntryNotFound indicates the requested entry does not exist.
	ErrEntryNotFound = errors.NewStd("entry not found")

	// ErrPhotoNotFound indicates the requested photo does not exist.
	ErrPhotoNotFound = errors.NewStd("photo not found")

	// ErrFieldNotFound indicates the requested custom field does not exist.
	ErrFieldNotFound = errors.NewStd("custom field not found")

	// ErrFieldExists indicates a field with the same name exists in the collection.
	ErrFieldExists = errors.NewStd("custom field already exists")

	// ErrTagNotFound indicates the requested tag does not exist.
	ErrTagNotFound = errors.NewStd("tag not found")

	// ErrTagExists indicates a rename would collide with another tag.
	ErrTagExists = errors.NewStd("tag already exists")

	// ErrTagCycle indicates a tag relation would close a cycle.
	ErrTagCycle = errors.NewStd("tag relation would create a cycle")

	// ErrClassificationNotFound indicates the requested classification does not exist.
	ErrClassificationNotFound = errors.NewStd("classification not found")

	// ErrClassificationEntryNotFound indicates the requested classification entry does not exist.
	ErrClassificationEntryNotFound = errors.NewStd("classification entry not found")

	// ErrActiveClassification indicates an attempt to delete the active classification.
	ErrActiveClassification = errors.NewStd("cannot delete the active classification")

	// ErrParentMismatch indicates a classification entry parent from another classification.
	ErrParentMismatch = errors.NewStd("parent belongs to a different classification")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)
