package entities

import "time"

// Collection is one user collection (a lifelist).
type Collection struct {
	ID                  uint      `gorm:"primaryKey"`
	Name                string    `gorm:"size:200;not null;uniqueIndex"`
	CollectionTypeID    uint      `gorm:"not null;index"`
	ClassificationLabel string    `gorm:"size:200"` // free-text label, e.g. "IOC 14.1"
	CreatedAt           time.Time `gorm:"autoCreateTime"`

	Type            *CollectionType  `gorm:"foreignKey:CollectionTypeID"`
	Tiers           []Tier           `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	Fields          []CustomField    `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	Entries         []Entry          `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	Classifications []Classification `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Collection) TableName() string {
	return "collections"
}
