package photostore

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/tphakala/lifelist/internal/errors"
)

// Size names one of the fixed thumbnail sizes.
type Size string

// Thumbnail sizes.
const (
	SizeXS Size = "xs"
	SizeSM Size = "sm"
	SizeMD Size = "md"
	SizeLG Size = "lg"
)

// Sizes returns every thumbnail size, smallest first.
func Sizes() []Size {
	return []Size{SizeXS, SizeSM, SizeMD, SizeLG}
}

// Dimensions returns the bounding box of the size in pixels.
func (s Size) Dimensions() (width, height int) {
	switch s {
	case SizeXS:
		return 60, 60
	case SizeSM:
		return 100, 100
	case SizeMD:
		return 300, 200
	case SizeLG:
		return 600, 400
	default:
		return 0, 0
	}
}

// Valid reports whether s is a known size.
func (s Size) Valid() bool {
	w, _ := s.Dimensions()
	return w > 0
}

// ParseSize accepts a size name in any case.
func ParseSize(s string) (Size, error) {
	size := Size(strings.ToLower(strings.TrimSpace(s)))
	if !size.Valid() {
		return "", errors.New(fmt.Errorf("%w: %q", ErrInvalidSize, s)).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}
	return size, nil
}

// Ref identifies one photo in the layout.
type Ref struct {
	CollectionID uint
	EntryID      uint
	PhotoID      uint
	FileName     string
}

// EntryPrefix is the key prefix holding every file of one entry.
func EntryPrefix(collectionID, entryID uint) string {
	return fmt.Sprintf("collection_%d/entry_%d/", collectionID, entryID)
}

// CollectionPrefix is the key prefix holding every file of one collection.
func CollectionPrefix(collectionID uint) string {
	return fmt.Sprintf("collection_%d/", collectionID)
}

// OriginalKey returns the key of the original file. Directory parts of
// FileName are dropped.
func (r Ref) OriginalKey() string {
	return fmt.Sprintf("%soriginal/%d_%s", EntryPrefix(r.CollectionID, r.EntryID), r.PhotoID, cleanFileName(r.FileName))
}

// ThumbnailKey returns the key of one thumbnail.
func (r Ref) ThumbnailKey(size Size) string {
	return fmt.Sprintf("%sthumbnails/%d_%s.jpg", EntryPrefix(r.CollectionID, r.EntryID), r.PhotoID, size)
}

// Keys returns the original key followed by every thumbnail key.
func (r Ref) Keys() []string {
	keys := []string{r.OriginalKey()}
	for _, s := range Sizes() {
		keys = append(keys, r.ThumbnailKey(s))
	}
	return keys
}

func cleanFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return "photo"
	}
	return name
}

var originalKeyPattern = regexp.MustCompile(`^collection_(\d+)/entry_(\d+)/original/(\d+)_(.+)$`)

// ParseOriginalKey recovers a Ref from an original key.
func ParseOriginalKey(key string) (Ref, error) {
	m := originalKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return Ref{}, errors.New(fmt.Errorf("%w: %q", ErrInvalidKey, key)).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}
	ids := make([]uint, 3)
	for i := range ids {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Ref{}, errors.New(fmt.Errorf("%w: %q", ErrInvalidKey, key)).
				Component(component).
				Category(errors.CategoryValidation).
				Build()
		}
		ids[i] = uint(n)
	}
	return Ref{CollectionID: ids[0], EntryID: ids[1], PhotoID: ids[2], FileName: m[4]}, nil
}
