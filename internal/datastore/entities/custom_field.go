package entities

import (
	"github.com/tphakala/lifelist/internal/fieldtype"
)

// CustomField declares one typed attribute slot of a collection.
type CustomField struct {
	ID           uint           `gorm:"primaryKey"`
	CollectionID uint           `gorm:"not null;uniqueIndex:idx_collection_field"`
	Name         string         `gorm:"size:200;not null;uniqueIndex:idx_collection_field"`
	Kind         fieldtype.Kind `gorm:"column:field_type;size:20;not null"`
	Required     bool           `gorm:"not null;default:false"`
	DisplayOrder int            `gorm:"not null;default:0;index"`
	RatingMax    int            `gorm:"not null;default:0"` // only meaningful for rating fields

	Options    []FieldOption    `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE"`
	Dependency *FieldDependency `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (CustomField) TableName() string {
	return "custom_fields"
}

// Type builds the typed variant from the stored kind, options and maximum.
// Options must be loaded for choice fields to validate values.
func (f *CustomField) Type() (fieldtype.Type, error) {
	opts := make([]fieldtype.Option, 0, len(f.Options))
	for _, o := range f.Options {
		opts = append(opts, fieldtype.Option{Value: o.Value, Label: o.Label})
	}
	return fieldtype.New(f.Kind, opts, f.RatingMax)
}

// FieldOption is one choice value of a choice field.
type FieldOption struct {
	ID       uint   `gorm:"primaryKey"`
	FieldID  uint   `gorm:"not null;index"`
	Value    string `gorm:"size:200;not null"`
	Label    string `gorm:"size:200"`
	Position int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM.
func (FieldOption) TableName() string {
	return "field_options"
}

// Dependency condition types. The engine stores these but never enforces them.
const (
	ConditionEquals    = "equals"
	ConditionNotEquals = "not_equals"
	ConditionNotEmpty  = "not_empty"
)

// FieldDependency makes a field visible only when its parent field
// satisfies Condition.
type FieldDependency struct {
	ID            uint   `gorm:"primaryKey"`
	FieldID       uint   `gorm:"not null;uniqueIndex"`
	ParentFieldID uint   `gorm:"not null;index"`
	Condition     string `gorm:"size:20;not null"`
	Value         string `gorm:"size:200"`

	ParentField *CustomField `gorm:"foreignKey:ParentFieldID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (FieldDependency) TableName() string {
	return "field_dependencies"
}
