package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// Classification entry fields a CSV column can be mapped to.
const (
	FieldName          = "name"
	FieldAlternateName = "alternate_name"
	FieldCategory      = "category"
	FieldCode          = "code"
	FieldRank          = "rank"
	FieldParent        = "parent_id"
)

// MappableFields lists every field a Mapping may name.
func MappableFields() []string {
	return []string{FieldName, FieldAlternateName, FieldCategory, FieldCode, FieldRank, FieldParent}
}

// Mapping maps classification entry fields to CSV column headers. The
// parent column holds the code or name of another row of the same file.
type Mapping map[string]string

// Validate requires a name column and known field names.
func (m Mapping) Validate() error {
	if strings.TrimSpace(m[FieldName]) == "" {
		return mappingError("a column must be mapped to %q", FieldName)
	}
	for field := range m {
		if !slices.Contains(MappableFields(), field) {
			return mappingError("unknown field %q", field)
		}
	}
	return nil
}

// ClassificationSpec describes the classification to create.
type ClassificationSpec struct {
	Name        string
	Version     string
	Source      string
	Description string
	// Activate makes the new classification the active one. The first
	// classification of a collection is always activated.
	Activate bool
}

// ClassificationResult summarizes a CSV import.
type ClassificationResult struct {
	Classification *entities.Classification
	// Imported counts stored entries.
	Imported int
	// Skipped counts rows without a name.
	Skipped int
	// Linked counts entries whose parent reference resolved.
	Linked int
	// Unresolved counts parent references that matched no row.
	Unresolved int
}

// csvEntry is one named row ready to insert.
type csvEntry struct {
	line      int
	entry     *entities.ClassificationEntry
	parentRef string
}

// ImportClassification creates a classification for collectionID and fills
// it from the CSV in r. Rows are written in chunks of one transaction that
// also holds the classification and the parent links: any failure, a
// malformed CSV line included, leaves nothing behind. Parent references are
// resolved after all rows are in, by code first and by name second.
func (s *Service) ImportClassification(ctx context.Context, collectionID uint, spec ClassificationSpec, r io.Reader, mapping Mapping, opts ...datastore.ChunkOption) (*ClassificationResult, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, csvError(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	cols, err := resolveColumns(header, mapping)
	if err != nil {
		return nil, err
	}

	c := &entities.Classification{
		CollectionID: collectionID,
		Name:         strings.TrimSpace(spec.Name),
		Version:      strings.TrimSpace(spec.Version),
		Source:       strings.TrimSpace(spec.Source),
		Description:  spec.Description,
		IsActive:     spec.Activate,
	}
	if c.Name == "" {
		return nil, mappingError("classification name is required")
	}

	start := time.Now()
	res := &ClassificationResult{Classification: c}
	err = s.sessions.Batch(ctx, func(ctx context.Context) error {
		if err := s.repos.Classifications.CreateClassification(ctx, c); err != nil {
			return err
		}

		byCode := make(map[string]uint)
		byName := make(map[string]uint)
		parentRefs := make(map[uint]string)

		var readErr error
		rows := csvEntries(cr, header, cols, &res.Skipped, &readErr)

		imported, err := datastore.Chunked(ctx, s.sessions, rows, func(ctx context.Context, row csvEntry) error {
			e := row.entry
			e.ClassificationID = c.ID
			if err := s.repos.Classifications.CreateEntry(ctx, e); err != nil {
				return fmt.Errorf("line %d: %w", row.line, err)
			}
			if e.Code != "" {
				if _, dup := byCode[e.Code]; !dup {
					byCode[e.Code] = e.ID
				}
			}
			if _, dup := byName[e.Name]; !dup {
				byName[e.Name] = e.ID
			}
			if row.parentRef != "" {
				parentRefs[e.ID] = row.parentRef
			}
			return nil
		}, opts...)
		if err != nil {
			return err
		}
		if readErr != nil {
			return readErr
		}
		res.Imported = imported

		if len(parentRefs) > 0 {
			return s.linkParents(ctx, res, parentRefs, byCode, byName)
		}
		return nil
	})
	if err != nil {
		getLogger().Warn("classification import rolled back",
			logger.String("name", c.Name),
			logger.Uint("collection_id", collectionID),
			logger.Error(err))
		return nil, err
	}

	getLogger().Info("classification imported",
		logger.Uint("classification_id", c.ID),
		logger.String("name", c.Name),
		logger.Int("imported", res.Imported),
		logger.Int("skipped", res.Skipped),
		logger.Int("unresolved_parents", res.Unresolved),
		logger.Duration("duration", time.Since(start)))
	return res, nil
}

// linkParents sets the parent of every entry whose reference resolves. It
// runs inside the import transaction.
func (s *Service) linkParents(ctx context.Context, res *ClassificationResult, refs map[uint]string, byCode, byName map[string]uint) error {
	ids := make([]uint, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	linked, unresolved := 0, 0
	for _, id := range ids {
		ref := refs[id]
		parentID, ok := byCode[ref]
		if !ok {
			parentID, ok = byName[ref]
		}
		if !ok || parentID == id {
			unresolved++
			getLogger().Debug("unresolved parent reference",
				logger.Uint("entry_id", id),
				logger.String("parent", ref))
			continue
		}
		if err := s.repos.Classifications.SetParent(ctx, id, &parentID); err != nil {
			return err
		}
		linked++
	}
	res.Linked, res.Unresolved = linked, unresolved
	return nil
}

// csvEntries yields an entry per named record until EOF. Records without a
// name are counted in skipped. A read error ends the sequence and is stored
// in errp.
func csvEntries(cr *csv.Reader, header []string, cols *columns, skipped *int, errp *error) iter.Seq[csvEntry] {
	return func(yield func(csvEntry) bool) {
		for {
			record, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				*errp = csvError(err)
				return
			}
			e := cols.entry(header, record)
			if e.Name == "" {
				*skipped++
				continue
			}
			line, _ := cr.FieldPos(0)
			row := csvEntry{line: line, entry: e, parentRef: cols.value(record, cols.parent)}
			if !yield(row) {
				return
			}
		}
	}
}

// columns holds the header index of every mapped field, -1 when unmapped.
type columns struct {
	name, alternate, category, code, rank, parent int
	mapped                                        []bool
}

func resolveColumns(header []string, m Mapping) (*columns, error) {
	index := func(field string) int {
		col := strings.TrimSpace(m[field])
		if col == "" {
			return -1
		}
		return slices.Index(header, col)
	}

	c := &columns{
		name:      index(FieldName),
		alternate: index(FieldAlternateName),
		category:  index(FieldCategory),
		code:      index(FieldCode),
		rank:      index(FieldRank),
		parent:    index(FieldParent),
		mapped:    make([]bool, len(header)),
	}
	if c.name < 0 {
		return nil, mappingError("column %q not found in header", m[FieldName])
	}
	for field, col := range m {
		col = strings.TrimSpace(col)
		i := slices.Index(header, col)
		if i < 0 {
			if col != "" {
				getLogger().Warn("mapped column not found in header",
					logger.String("field", field),
					logger.String("column", col))
			}
			continue
		}
		c.mapped[i] = true
	}
	return c, nil
}

func (c *columns) value(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// entry builds a classification entry from a record. Non-empty values of
// unmapped columns go to ExtraData under their header.
func (c *columns) entry(header, record []string) *entities.ClassificationEntry {
	e := &entities.ClassificationEntry{
		Name:          c.value(record, c.name),
		AlternateName: c.value(record, c.alternate),
		Category:      c.value(record, c.category),
		Code:          c.value(record, c.code),
		Rank:          c.value(record, c.rank),
	}
	for i, h := range header {
		if c.mapped[i] || h == "" {
			continue
		}
		if v := c.value(record, i); v != "" {
			if e.ExtraData == nil {
				e.ExtraData = make(map[string]string)
			}
			e.ExtraData[h] = v
		}
	}
	return e
}

func mappingError(format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", ErrInvalidMapping, fmt.Sprintf(format, args...))).
		Component(component).
		Category(errors.CategoryValidation).
		Build()
}

// csvError wraps a read failure; csv.ParseError already names the line.
func csvError(err error) error {
	return errors.New(fmt.Errorf("failed to read CSV: %w", err)).
		Component(component).
		Category(errors.CategoryFileParsing).
		Build()
}
