package entities

// Tag is a global label, unique by name.
type Tag struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:100;not null;uniqueIndex"`
	Category string `gorm:"size:100;index"` // empty when uncategorised
}

// TableName returns the table name for GORM.
func (Tag) TableName() string {
	return "tags"
}

// EntryTag is the join row between entries and tags.
type EntryTag struct {
	EntryID uint `gorm:"primaryKey"`
	TagID   uint `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM.
func (EntryTag) TableName() string {
	return "entry_tags"
}

// TagRelation is a directed parent to child edge between two tags.
type TagRelation struct {
	ID          uint `gorm:"primaryKey"`
	TagID       uint `gorm:"not null;uniqueIndex:idx_tag_relation"`
	ParentTagID uint `gorm:"not null;uniqueIndex:idx_tag_relation;index"`

	Tag       *Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
	ParentTag *Tag `gorm:"foreignKey:ParentTagID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (TagRelation) TableName() string {
	return "tag_relations"
}
