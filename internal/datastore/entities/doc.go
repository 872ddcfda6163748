// Package entities defines the GORM models of the lifelist schema.
//
// # Schema
//
//   - CollectionType, CollectionTypeTier: persisted copies of catalog templates
//   - Collection: a named user collection of one type
//   - Tier: ordered status buckets of a collection
//   - CustomField, FieldOption, FieldDependency: per-collection attribute schema
//   - Entry, EntryAttributeValue: records and their attribute cells
//   - Photo: image attachments of an entry
//   - Tag, EntryTag, TagRelation: global labels, their entry links and hierarchy
//   - Classification, ClassificationEntry: imported reference lists
//
// Child rows reference their owner with ON DELETE CASCADE, so removing a
// collection or entry removes everything it owns. Tags are global and are
// never removed by entry deletion.
package entities
