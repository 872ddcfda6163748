// Package repository provides the read and write operations of the lifelist
// schema: collections, tiers, custom fields and their values, entries (the
// query engine), photos, tags and classifications.
//
// # Scopes
//
// Repositories are built once from a Manager's *gorm.DB and route every
// statement through datastore.Conn, so calls made inside a datastore scope
// share the scope transaction. Operations that issue several statements run
// them in a nested transaction of their own, which becomes a savepoint when a
// scope is active. A failing call therefore never leaves part of its writes
// behind.
//
// # Error Handling
//
// Repositories return sentinel errors (ErrCollectionNotFound, etc.) wrapped
// in an EnhancedError instead of leaking GORM errors. Single-entity lookups
// that find nothing return a CategoryNotFound error; list and query
// operations return an empty slice.
package repository
