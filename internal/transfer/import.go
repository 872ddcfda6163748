package transfer

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/fieldtype"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/photostore"
)

// ImportResult summarizes an import.
type ImportResult struct {
	Collection *entities.Collection
	Entries    int
	Tags       int
	Photos     int
	// PhotosCopied counts photo files copied from a bundle. Rows are created
	// even when the file is missing.
	PhotosCopied int
}

// pendingPhoto is a photo row whose file is copied after commit.
type pendingPhoto struct {
	bundleKey string
	storeKey  string
}

// Import recreates the collection described by doc. It fails with
// repository.ErrCollectionExists before writing anything when a collection
// of the same name exists. Everything else happens in one batch scope, so a
// failed import leaves the store unchanged.
func (s *Service) Import(ctx context.Context, doc *Document) (*ImportResult, error) {
	res, _, err := s.importDocument(ctx, doc)
	return res, err
}

// ImportBundle imports the document at jsonPath and copies the photo files
// found in the photos folder next to it into the photo store.
func (s *Service) ImportBundle(ctx context.Context, jsonPath string) (*ImportResult, error) {
	doc, err := ReadExportFile(jsonPath)
	if err != nil {
		return nil, err
	}
	res, pending, err := s.importDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	if s.photos == nil || len(pending) == 0 {
		return res, nil
	}

	src, err := photostore.NewFSStore(filepath.Dir(jsonPath))
	if err != nil {
		return res, err
	}
	for _, p := range pending {
		ok, err := copyPhoto(ctx, src, p.bundleKey, s.photos, p.storeKey)
		if err != nil {
			return res, err
		}
		if !ok {
			getLogger().Warn("photo file missing from bundle", logger.String("file", p.bundleKey))
			continue
		}
		res.PhotosCopied++
	}
	return res, nil
}

func (s *Service) importDocument(ctx context.Context, doc *Document) (*ImportResult, []pendingPhoto, error) {
	if doc == nil {
		return nil, nil, invalidDocument("document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}

	name := strings.TrimSpace(doc.Metadata.Name)
	_, err := s.repos.Collections.GetCollectionByName(ctx, name)
	switch {
	case err == nil:
		return nil, nil, errors.New(fmt.Errorf("%w: %q", repository.ErrCollectionExists, name)).
			Component(component).
			Category(errors.CategoryConflict).
			Build()
	case !errors.IsNotFound(err):
		return nil, nil, err
	}

	start := time.Now()
	var (
		res     *ImportResult
		pending []pendingPhoto
	)
	err = s.sessions.Batch(ctx, func(ctx context.Context) error {
		var err error
		res, pending, err = s.importRows(ctx, doc)
		return err
	})
	if err != nil {
		getLogger().Warn("import rolled back",
			logger.String("collection", name),
			logger.Error(err))
		return nil, nil, err
	}

	getLogger().Info("collection imported",
		logger.String("collection", name),
		logger.Uint("collection_id", res.Collection.ID),
		logger.Int("entries", res.Entries),
		logger.Int("photos", res.Photos),
		logger.Duration("duration", time.Since(start)))
	return res, pending, nil
}

func (s *Service) importRows(ctx context.Context, doc *Document) (*ImportResult, []pendingPhoto, error) {
	md := doc.Metadata
	typeName := strings.TrimSpace(md.TypeName)
	if typeName == "" {
		typeName = DefaultTypeName
	}
	ct, err := s.repos.Collections.EnsureType(ctx, typeName)
	if err != nil {
		return nil, nil, err
	}
	coll, err := s.repos.Collections.CreateCollection(ctx, md.Name, ct.Name, md.ClassificationLabel)
	if err != nil {
		return nil, nil, err
	}

	tiers := slices.DeleteFunc(slices.Clone(md.Tiers), func(t string) bool {
		return strings.TrimSpace(t) == entities.UndeterminedTier
	})
	if err := s.repos.Tiers.SetTiers(ctx, coll.ID, tiers); err != nil {
		return nil, nil, err
	}
	validTiers, err := s.repos.Tiers.TiersFor(ctx, coll.ID)
	if err != nil {
		return nil, nil, err
	}

	known, err := s.replaceFields(ctx, coll.ID, md.CustomFields)
	if err != nil {
		return nil, nil, err
	}

	res := &ImportResult{Collection: coll}
	tagIDs := make(map[string]uint)
	var pending []pendingPhoto

	for i := range doc.Observations {
		obs := &doc.Observations[i]
		entry := &entities.Entry{
			CollectionID: coll.ID,
			Name:         obs.EntryName,
			ObservedAt:   obs.ObservationDate.TimePtr(),
			Location:     obs.Location,
			Latitude:     obs.Latitude,
			Longitude:    obs.Longitude,
			Tier:         importTier(obs.Tier, validTiers),
			Notes:        obs.Notes,
		}
		if err := s.repos.Entries.CreateEntry(ctx, entry); err != nil {
			return nil, nil, err
		}
		res.Entries++

		values := make(map[string]string, len(obs.CustomFields))
		for _, cf := range obs.CustomFields {
			fieldName := strings.TrimSpace(cf.FieldName)
			if !known[fieldName] {
				getLogger().Debug("skipping value of unknown field",
					logger.String("field", fieldName),
					logger.Uint("entry_id", entry.ID))
				continue
			}
			values[fieldName] = cf.Value
		}
		if len(values) > 0 {
			if err := s.repos.Fields.SetAttributesByName(ctx, entry.ID, values); err != nil {
				return nil, nil, err
			}
		}

		ids := make([]uint, 0, len(obs.Tags))
		for _, t := range obs.Tags {
			tagName := strings.TrimSpace(t.Name)
			if tagName == "" {
				continue
			}
			id, ok := tagIDs[tagName]
			if !ok {
				tag, err := s.repos.Tags.CreateTag(ctx, tagName, t.Category)
				if err != nil {
					return nil, nil, err
				}
				id = tag.ID
				tagIDs[tagName] = id
			}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			if err := s.repos.Entries.SetTags(ctx, entry.ID, ids); err != nil {
				return nil, nil, err
			}
		}

		for _, p := range obs.Photos {
			key, err := s.importPhoto(ctx, coll.ID, entry.ID, p)
			if err != nil {
				return nil, nil, err
			}
			res.Photos++
			pending = append(pending, pendingPhoto{bundleKey: bundlePhotoKey(p), storeKey: key})
		}
	}
	res.Tags = len(tagIDs)
	return res, pending, nil
}

// replaceFields swaps the fields snapshotted from the type template for the
// document's definitions. It returns the set of field names now defined.
func (s *Service) replaceFields(ctx context.Context, collectionID uint, defs []FieldDefinition) (map[string]bool, error) {
	existing, err := s.repos.Fields.FieldsFor(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	for _, f := range existing {
		if err := s.repos.Fields.DeleteField(ctx, f.ID); err != nil {
			return nil, err
		}
	}

	known := make(map[string]bool, len(defs))
	for _, def := range defs {
		kind, err := fieldtype.ParseKind(string(def.Type))
		if err != nil {
			return nil, err
		}
		opts := make([]fieldtype.Option, 0, len(def.Options))
		for _, o := range def.Options {
			opts = append(opts, fieldtype.Option{Value: o.Value, Label: o.Label})
		}
		typ, err := fieldtype.New(kind, opts, def.RatingMax)
		if err != nil {
			return nil, err
		}
		order := def.DisplayOrder
		f, err := s.repos.Fields.CreateField(ctx, collectionID, repository.FieldSpec{
			Name:         def.Name,
			Type:         typ,
			Required:     def.Required,
			DisplayOrder: &order,
		})
		if err != nil {
			return nil, err
		}
		known[f.Name] = true
	}
	return known, nil
}

// importPhoto inserts the photo row and points it at its key in the store
// layout, which needs the new row id. It returns that key.
func (s *Service) importPhoto(ctx context.Context, collectionID, entryID uint, p PhotoRef) (string, error) {
	fileName := photoFileName(p.FileName)
	photo := &entities.Photo{
		EntryID:   entryID,
		FilePath:  fileName,
		IsPrimary: p.IsPrimary,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		TakenAt:   p.TakenDate.TimePtr(),
	}
	if err := s.repos.Photos.AddPhoto(ctx, photo); err != nil {
		return "", err
	}
	photo.FilePath = photostore.Ref{
		CollectionID: collectionID,
		EntryID:      entryID,
		PhotoID:      photo.ID,
		FileName:     fileName,
	}.OriginalKey()
	if err := s.repos.Photos.UpdatePhoto(ctx, photo); err != nil {
		return "", err
	}
	return photo.FilePath, nil
}

// importTier keeps tiers the collection defines and maps any other stored
// tier to Undetermined.
func importTier(tier *string, valid []string) *string {
	if tier == nil {
		return nil
	}
	t := strings.TrimSpace(*tier)
	switch {
	case t == "":
		return nil
	case slices.Contains(valid, t):
		return &t
	default:
		undetermined := entities.UndeterminedTier
		return &undetermined
	}
}
