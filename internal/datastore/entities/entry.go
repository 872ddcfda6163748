package entities

import "time"

// Entry is one timestamped record of a collection.
type Entry struct {
	ID           uint       `gorm:"primaryKey"`
	CollectionID uint       `gorm:"not null;index:idx_entry_name,priority:1;index:idx_entry_tier,priority:1"`
	Name         string     `gorm:"size:300;not null;index:idx_entry_name,priority:2"`
	ObservedAt   *time.Time `gorm:"index"`
	Location     string     `gorm:"size:500"`
	Latitude     *float64
	Longitude    *float64
	Tier         *string   `gorm:"size:100;index:idx_entry_tier,priority:2"`
	Notes        string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Attributes []EntryAttributeValue `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
	Photos     []Photo               `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
	Tags       []Tag                 `gorm:"many2many:entry_tags;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Entry) TableName() string {
	return "entries"
}

// HasCoordinates reports whether both latitude and longitude are set.
func (e *Entry) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// EntryAttributeValue is one EAV cell. (EntryID, FieldID) is unique.
type EntryAttributeValue struct {
	ID      uint   `gorm:"primaryKey"`
	EntryID uint   `gorm:"not null;uniqueIndex:idx_entry_field"`
	FieldID uint   `gorm:"not null;uniqueIndex:idx_entry_field;index"`
	Value   string `gorm:"type:text;not null"`

	Field *CustomField `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (EntryAttributeValue) TableName() string {
	return "entry_attribute_values"
}
