package transfer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/photostore"
)

// bundlePhotoDir is the folder of a bundle holding photo files.
const bundlePhotoDir = "photos"

// Export reads a collection into a Document. All reads share one list scope,
// so the document is a consistent snapshot.
func (s *Service) Export(ctx context.Context, collectionID uint) (*Document, error) {
	start := time.Now()
	doc, _, err := s.snapshot(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	getLogger().Info("collection exported",
		logger.Uint("collection_id", collectionID),
		logger.Int("observations", len(doc.Observations)),
		logger.Duration("duration", time.Since(start)))
	return doc, nil
}

// snapshot builds the document and the storage key of every photo by id.
func (s *Service) snapshot(ctx context.Context, collectionID uint) (doc *Document, keys map[uint]string, err error) {
	err = s.sessions.List(ctx, func(ctx context.Context) error {
		doc, keys, err = s.export(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, keys, nil
}

func (s *Service) export(ctx context.Context, collectionID uint) (*Document, map[uint]string, error) {
	coll, err := s.repos.Collections.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	tiers, err := s.repos.Tiers.TiersFor(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	fields, err := s.repos.Fields.FieldsFor(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}

	doc := &Document{
		DocumentID: uuid.NewString(),
		ExportedAt: Timestamp{Time: time.Now().UTC()},
		Version:    FormatVersion,
		Metadata: Metadata{
			ID:                  coll.ID,
			Name:                coll.Name,
			ClassificationLabel: coll.ClassificationLabel,
			TypeID:              coll.CollectionTypeID,
			Tiers:               tiers,
			CustomFields:        make([]FieldDefinition, 0, len(fields)),
		},
		Observations: []Observation{},
	}
	if coll.Type != nil {
		doc.Metadata.TypeName = coll.Type.Name
	}
	for _, f := range fields {
		doc.Metadata.CustomFields = append(doc.Metadata.CustomFields, fieldDefinition(f))
	}

	rows, err := s.repos.Entries.Query(ctx, collectionID, repository.Filter{}, repository.SortNameAsc, repository.Page{})
	if err != nil {
		return nil, nil, err
	}
	keys := make(map[uint]string)
	for _, row := range rows {
		entry, err := s.repos.Entries.GetDetail(ctx, row.ID)
		if err != nil {
			return nil, nil, err
		}
		attrs, err := s.repos.Fields.AttributesFor(ctx, row.ID)
		if err != nil {
			return nil, nil, err
		}
		doc.Observations = append(doc.Observations, observation(entry, fields, attrs))
		for i := range entry.Photos {
			keys[entry.Photos[i].ID] = entry.Photos[i].FilePath
		}
	}
	return doc, keys, nil
}

func fieldDefinition(f *entities.CustomField) FieldDefinition {
	def := FieldDefinition{
		ID:           f.ID,
		Name:         f.Name,
		Type:         f.Kind,
		Required:     f.Required,
		DisplayOrder: f.DisplayOrder,
		RatingMax:    f.RatingMax,
	}
	for _, o := range f.Options {
		def.Options = append(def.Options, Option{Value: o.Value, Label: o.Label})
	}
	return def
}

// observation converts an entry. Attribute values follow field display order.
func observation(e *entities.Entry, fields []*entities.CustomField, attrs map[string]string) Observation {
	obs := Observation{
		ID:              e.ID,
		EntryName:       e.Name,
		ObservationDate: NewTimestamp(e.ObservedAt),
		Location:        e.Location,
		Latitude:        e.Latitude,
		Longitude:       e.Longitude,
		Tier:            e.Tier,
		Notes:           e.Notes,
		CustomFields:    []FieldValue{},
		Tags:            []TagRef{},
		Photos:          []PhotoRef{},
	}
	for _, f := range fields {
		if v, ok := attrs[f.Name]; ok {
			obs.CustomFields = append(obs.CustomFields, FieldValue{FieldName: f.Name, Value: v})
		}
	}
	for _, t := range e.Tags {
		obs.Tags = append(obs.Tags, TagRef{Name: t.Name, Category: t.Category})
	}
	for i := range e.Photos {
		p := &e.Photos[i]
		obs.Photos = append(obs.Photos, PhotoRef{
			ID:        p.ID,
			FileName:  photoFileName(p.FilePath),
			IsPrimary: p.IsPrimary,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			TakenDate: NewTimestamp(p.TakenAt),
		})
	}
	return obs
}

// photoFileName recovers the name a photo was uploaded with.
func photoFileName(key string) string {
	if ref, err := photostore.ParseOriginalKey(key); err == nil {
		return ref.FileName
	}
	return path.Base(strings.ReplaceAll(key, "\\", "/"))
}

// bundlePhotoKey is the key of a photo file inside a bundle.
func bundlePhotoKey(p PhotoRef) string {
	return fmt.Sprintf("%s/%d_%s", bundlePhotoDir, p.ID, photoFileName(p.FileName))
}

// ExportBundle exports a collection into dir as <name>.json plus, when the
// service has a photo store, a photos folder with every original file.
// Photos missing from the store are logged and skipped. It returns the path
// of the JSON file.
func (s *Service) ExportBundle(ctx context.Context, collectionID uint, dir string) (string, error) {
	doc, keys, err := s.snapshot(ctx, collectionID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(fmt.Errorf("failed to create bundle directory: %w", err)).
			Component(component).
			Category(errors.CategoryFileIO).
			FileContext(dir, 0).
			Build()
	}

	if s.photos != nil {
		if err := s.copyPhotosOut(ctx, doc, keys, dir); err != nil {
			return "", err
		}
	}

	jsonPath := filepath.Join(dir, BundleFileName(doc.Metadata.Name))
	if err := WriteExportFile(jsonPath, doc); err != nil {
		return "", err
	}
	return jsonPath, nil
}

func (s *Service) copyPhotosOut(ctx context.Context, doc *Document, keys map[uint]string, dir string) error {
	dst, err := photostore.NewFSStore(dir)
	if err != nil {
		return err
	}
	copied := 0
	for i := range doc.Observations {
		obs := &doc.Observations[i]
		for _, p := range obs.Photos {
			key := keys[p.ID]
			ok, err := copyPhoto(ctx, s.photos, key, dst, bundlePhotoKey(p))
			if err != nil {
				return err
			}
			if !ok {
				getLogger().Warn("photo file missing from store",
					logger.Uint("photo_id", p.ID),
					logger.String("key", key))
				continue
			}
			copied++
		}
	}
	getLogger().Debug("bundle photos copied", logger.Int("count", copied))
	return nil
}

// copyPhoto streams srcKey of src to dstKey of dst. It reports false when
// srcKey does not exist.
func copyPhoto(ctx context.Context, src photostore.Store, srcKey string, dst photostore.Store, dstKey string) (bool, error) {
	r, err := src.Open(ctx, srcKey)
	if errors.Is(err, photostore.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = r.Close() }()
	if err := dst.Put(ctx, dstKey, r); err != nil {
		return false, err
	}
	return true, nil
}

// BundleFileName is the export file name for a collection name.
func BundleFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "collection"
	}
	return name + ".json"
}
