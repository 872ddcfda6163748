package photostore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/tphakala/lifelist/internal/errors"
)

// FSStore keeps photos under a local directory.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at root, creating the directory.
func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.Newf("photo directory is not configured").
			Component(component).
			Category(errors.CategoryConfiguration).
			Build()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryFileIO).
			FileContext(root, 0).
			Build()
	}
	return &FSStore{root: root}, nil
}

// Driver returns DriverFS.
func (s *FSStore) Driver() string { return DriverFS }

// Root returns the base directory.
func (s *FSStore) Root() string { return s.root }

// cleanKey rejects absolute keys and keys escaping the root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", errors.New(fmt.Errorf("%w: %q", ErrInvalidKey, key)).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.New(fmt.Errorf("%w: %q", ErrInvalidKey, key)).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}
	return clean, nil
}

func (s *FSStore) pathFor(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes the file atomically.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return storageError(err, "put", key)
	}
	if err := atomic.WriteFile(p, r); err != nil {
		return storageError(err, "put", key)
	}
	return nil
}

// Open opens the file stored under key.
func (s *FSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notExist(key)
	}
	if err != nil {
		return nil, storageError(err, "open", key)
	}
	return f, nil
}

// Delete removes key and prunes empty parent directories.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageError(err, "delete", key)
	}
	for dir := filepath.Dir(p); dir != s.root && strings.HasPrefix(dir, s.root); dir = filepath.Dir(dir) {
		// fails on the first non-empty directory
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// List walks the directory below prefix.
func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "list", prefix)
	}
	slices.Sort(keys)
	return keys, nil
}
