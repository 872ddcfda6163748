package entities

import "time"

// Classification is an imported reference list of one collection. At most
// one classification per collection is active.
type Classification struct {
	ID           uint      `gorm:"primaryKey"`
	CollectionID uint      `gorm:"not null;index"`
	Name         string    `gorm:"size:200;not null"`
	Version      string    `gorm:"size:50"`
	Source       string    `gorm:"size:500"`
	Description  string    `gorm:"type:text"`
	IsActive     bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Entries []ClassificationEntry `gorm:"foreignKey:ClassificationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Classification) TableName() string {
	return "classifications"
}

// ClassificationEntry is one node of a classification tree. Parent must
// belong to the same classification.
type ClassificationEntry struct {
	ID               uint              `gorm:"primaryKey"`
	ClassificationID uint              `gorm:"not null;index:idx_classification_name,priority:1;index:idx_classification_alt,priority:1;index:idx_classification_category,priority:1"`
	Name             string            `gorm:"size:300;not null;index:idx_classification_name,priority:2"`
	AlternateName    string            `gorm:"size:300;index:idx_classification_alt,priority:2"`
	ParentID         *uint             `gorm:"index"`
	Category         string            `gorm:"size:200;index:idx_classification_category,priority:2"`
	Code             string            `gorm:"size:100"`
	Rank             string            `gorm:"size:50"`
	IsCustom         bool              `gorm:"not null;default:false"`
	ExtraData        map[string]string `gorm:"serializer:json;type:text"`

	Parent *ClassificationEntry `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM.
func (ClassificationEntry) TableName() string {
	return "classification_entries"
}
