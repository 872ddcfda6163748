package entities

import "time"

// Photo is an image attached to an entry. FilePath holds the storage key of
// the original.
type Photo struct {
	ID        uint   `gorm:"primaryKey"`
	EntryID   uint   `gorm:"not null;index:idx_photo_primary,priority:1"`
	FilePath  string `gorm:"size:1000;not null"`
	IsPrimary bool   `gorm:"not null;default:false;index:idx_photo_primary,priority:2"`
	Latitude  *float64
	Longitude *float64
	TakenAt   *time.Time
	Width     int
	Height    int
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}
