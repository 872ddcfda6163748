package entities

// UndeterminedTier is the reserved tier for entries whose tier no longer exists.
const UndeterminedTier = "Undetermined"

// Tier is an ordered status bucket of one collection.
type Tier struct {
	ID           uint   `gorm:"primaryKey"`
	CollectionID uint   `gorm:"not null;uniqueIndex:idx_collection_tier"`
	Name         string `gorm:"size:100;not null;uniqueIndex:idx_collection_tier"`
	Position     int    `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (Tier) TableName() string {
	return "tiers"
}
