package datastore

import (
	"context"
	"iter"

	"gorm.io/gorm"
)

// ChunkOption configures Chunked.
type ChunkOption func(*chunkConfig)

type chunkConfig struct {
	size     int
	progress func(processed int)
}

// ChunkSize overrides the session chunk size for one call.
func ChunkSize(n int) ChunkOption {
	return func(c *chunkConfig) {
		if n > 0 {
			c.size = n
		}
	}
}

// OnProgress is called after every flushed chunk with the running total.
func OnProgress(fn func(processed int)) ChunkOption {
	return func(c *chunkConfig) {
		c.progress = fn
	}
}

// Chunked applies fn to items inside one transaction. Every chunk of items
// runs on a fresh session of that transaction, so statement state built up
// by earlier chunks is dropped. The transaction commits once after the last
// chunk; when fn fails or ctx is cancelled, nothing written by any chunk is
// kept. It returns the number of items persisted, zero on failure.
//
// Called inside another scope, Chunked nests as a savepoint and commits with
// its parent.
func Chunked[T any](ctx context.Context, s *Sessions, items iter.Seq[T], fn func(ctx context.Context, item T) error, opts ...ChunkOption) (int, error) {
	if fn == nil {
		return 0, ErrNilFunc
	}

	cfg := chunkConfig{size: s.chunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	processed := 0
	err := s.run(ctx, ScopeChunked, s.db, func(ctx context.Context) error {
		tx, _ := txFrom(ctx)
		buf := make([]T, 0, cfg.size)

		flush := func() error {
			if len(buf) == 0 {
				return nil
			}
			chunkCtx := WithTx(ctx, tx.Session(&gorm.Session{NewDB: true}))
			for _, item := range buf {
				if err := fn(chunkCtx, item); err != nil {
					return err
				}
			}
			processed += len(buf)
			clear(buf)
			buf = buf[:0]
			s.metrics.IncrementChunkFlushes()
			if cfg.progress != nil {
				cfg.progress(processed)
			}
			return nil
		}

		for item := range items {
			if err := ctx.Err(); err != nil {
				return cancelled(ScopeChunked, err)
			}
			buf = append(buf, item)
			if len(buf) >= cfg.size {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return cancelled(ScopeChunked, err)
		}
		return flush()
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}
