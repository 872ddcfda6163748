package entities

import "time"

// CollectionType is a persisted collection template seeded from the catalog.
type CollectionType struct {
	ID              uint      `gorm:"primaryKey"`
	Name            string    `gorm:"size:100;not null;uniqueIndex"`
	Description     string    `gorm:"size:500"`
	Icon            string    `gorm:"size:50"`
	EntryTerm       string    `gorm:"size:50;not null"`
	ObservationTerm string    `gorm:"size:50;not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`

	Tiers []CollectionTypeTier `gorm:"foreignKey:CollectionTypeID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (CollectionType) TableName() string {
	return "collection_types"
}

// CollectionTypeTier is one template tier of a CollectionType.
type CollectionTypeTier struct {
	ID               uint   `gorm:"primaryKey"`
	CollectionTypeID uint   `gorm:"not null;uniqueIndex:idx_type_tier"`
	Name             string `gorm:"size:100;not null;uniqueIndex:idx_type_tier"`
	Position         int    `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (CollectionTypeTier) TableName() string {
	return "collection_type_tiers"
}
