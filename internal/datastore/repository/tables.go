package repository

// Table names used in raw joins and subqueries.
const (
	tableCollections           = "collections"
	tableCollectionTypes       = "collection_types"
	tableCollectionTypeTiers   = "collection_type_tiers"
	tableTiers                 = "tiers"
	tableCustomFields          = "custom_fields"
	tableFieldOptions          = "field_options"
	tableFieldDependencies     = "field_dependencies"
	tableEntries               = "entries"
	tableEntryAttributeValues  = "entry_attribute_values"
	tableEntryTags             = "entry_tags"
	tablePhotos                = "photos"
	tableTags                  = "tags"
	tableTagRelations          = "tag_relations"
	tableClassifications       = "classifications"
	tableClassificationEntries = "classification_entries"
)
