package repository

import (
	"context"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/fieldtype"
)

// FieldSpec describes a custom field to create.
type FieldSpec struct {
	Name     string
	Type     fieldtype.Type
	Required bool
	// DisplayOrder places the field; nil appends it after the last field.
	DisplayOrder *int
}

// FieldUpdate changes selected attributes of a field. Nil members are kept.
type FieldUpdate struct {
	Name         *string
	Required     *bool
	DisplayOrder *int
	RatingMax    *int
}

// FieldRepository manages the per-collection attribute schema and the
// attribute values stored against entries.
type FieldRepository interface {
	// FieldsFor returns the collection's fields in display order with their
	// options and dependency loaded.
	FieldsFor(ctx context.Context, collectionID uint) ([]*entities.CustomField, error)

	// GetField retrieves one field with options and dependency.
	// Returns ErrFieldNotFound if not found.
	GetField(ctx context.Context, id uint) (*entities.CustomField, error)

	// CreateField adds a field. Choice options carried by spec.Type are stored
	// in order. Returns ErrFieldExists for a duplicate name.
	CreateField(ctx context.Context, collectionID uint, spec FieldSpec) (*entities.CustomField, error)

	// UpdateField applies upd to the field.
	UpdateField(ctx context.Context, id uint, upd FieldUpdate) error

	// DeleteField removes a field with its options, dependencies and values.
	DeleteField(ctx context.Context, id uint) error

	// SetOptions replaces the ordered option list of a choice field.
	SetOptions(ctx context.Context, fieldID uint, options []fieldtype.Option) error

	// SetDependency makes fieldID depend on parentFieldID. The condition is
	// stored for presentation and never enforced on writes.
	SetDependency(ctx context.Context, fieldID, parentFieldID uint, condition, value string) error

	// ClearDependency removes the field's dependency, if any.
	ClearDependency(ctx context.Context, fieldID uint) error

	// SetAttributes replaces every attribute value of an entry with values,
	// keyed by field id. Blank values are not stored.
	SetAttributes(ctx context.Context, entryID uint, values map[uint]string) error

	// SetAttributesByName is SetAttributes keyed by field name.
	SetAttributesByName(ctx context.Context, entryID uint, values map[string]string) error

	// AttributesFor returns the entry's stored values keyed by field name.
	AttributesFor(ctx context.Context, entryID uint) (map[string]string, error)
}
