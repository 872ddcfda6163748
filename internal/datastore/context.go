package datastore

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx returns a context carrying tx as the active scope transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn returns the transaction of the scope carried by ctx, or db when ctx
// carries none. Repositories route every query through Conn so that work
// issued inside a scope shares its transaction.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// InScope reports whether ctx carries a scope transaction.
func InScope(ctx context.Context) bool {
	_, ok := txFrom(ctx)
	return ok
}
