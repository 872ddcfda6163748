package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/fieldtype"
)

// FormatVersion is written into every exported document. Documents with a
// newer version are rejected.
const FormatVersion = 1

// Document is the portable form of one collection.
type Document struct {
	DocumentID   string        `json:"document_id"`
	ExportedAt   Timestamp     `json:"exported_at"`
	Version      int           `json:"version"`
	Metadata     Metadata      `json:"metadata"`
	Observations []Observation `json:"observations"`
}

// Metadata describes the exported collection and its schema.
type Metadata struct {
	ID                  uint              `json:"id"`
	Name                string            `json:"name"`
	ClassificationLabel string            `json:"classification_label,omitempty"`
	TypeID              uint              `json:"type_id"`
	TypeName            string            `json:"type_name"`
	Tiers               []string          `json:"tiers"`
	CustomFields        []FieldDefinition `json:"custom_fields"`
}

// FieldDefinition is one exported custom field.
type FieldDefinition struct {
	ID           uint           `json:"id,omitempty"`
	Name         string         `json:"name"`
	Type         fieldtype.Kind `json:"type"`
	Required     bool           `json:"required"`
	DisplayOrder int            `json:"display_order"`
	Options      []Option       `json:"options,omitempty"`
	RatingMax    int            `json:"rating_max,omitempty"`
}

// Option is one choice of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Observation is one exported entry.
type Observation struct {
	ID              uint         `json:"id"`
	EntryName       string       `json:"entry_name"`
	ObservationDate *Timestamp   `json:"observation_date"`
	Location        string       `json:"location,omitempty"`
	Latitude        *float64     `json:"latitude"`
	Longitude       *float64     `json:"longitude"`
	Tier            *string      `json:"tier"`
	Notes           string       `json:"notes,omitempty"`
	CustomFields    []FieldValue `json:"custom_fields"`
	Tags            []TagRef     `json:"tags"`
	Photos          []PhotoRef   `json:"photos"`
}

// FieldValue is one attribute value keyed by field name.
type FieldValue struct {
	FieldName string `json:"field_name"`
	Value     string `json:"value"`
}

// TagRef names a tag attached to an observation.
type TagRef struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// PhotoRef describes a photo. The file itself travels separately, see
// ExportBundle.
type PhotoRef struct {
	ID        uint       `json:"id,omitempty"`
	FileName  string     `json:"file_name"`
	IsPrimary bool       `json:"is_primary"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	TakenDate *Timestamp `json:"taken_date"`
}

// Validate checks what Import relies on.
func (d *Document) Validate() error {
	if d.Version > FormatVersion {
		return errors.New(fmt.Errorf("%w: version %d", ErrUnsupportedVersion, d.Version)).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}
	if strings.TrimSpace(d.Metadata.Name) == "" {
		return invalidDocument("collection name is empty")
	}
	seen := make(map[string]bool, len(d.Metadata.CustomFields))
	for _, f := range d.Metadata.CustomFields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return invalidDocument("custom field without a name")
		}
		if seen[name] {
			return invalidDocument(fmt.Sprintf("custom field %q appears twice", name))
		}
		seen[name] = true
		if _, err := fieldtype.ParseKind(string(f.Type)); err != nil {
			return err
		}
	}
	for i := range d.Observations {
		if strings.TrimSpace(d.Observations[i].EntryName) == "" {
			return invalidDocument(fmt.Sprintf("observation %d has no entry name", i))
		}
	}
	return nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.New(fmt.Errorf("failed to encode document: %w", err)).
			Component(component).
			Category(errors.CategoryTransfer).
			Build()
	}
	return nil
}

// Decode reads and validates a document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.New(fmt.Errorf("%w: %w", ErrInvalidDocument, err)).
			Component(component).
			Category(errors.CategoryFileParsing).
			Build()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteExportFile writes doc to path. The file is replaced atomically, so a
// failed write never leaves a truncated export behind.
func WriteExportFile(path string, doc *Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return errors.New(fmt.Errorf("failed to write export file: %w", err)).
			Component(component).
			Category(errors.CategoryFileIO).
			FileContext(path, int64(buf.Len())).
			Build()
	}
	return nil
}

// ReadExportFile reads and validates the document at path.
func ReadExportFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open export file: %w", err)).
			Component(component).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

func invalidDocument(msg string) error {
	return errors.New(fmt.Errorf("%w: %s", ErrInvalidDocument, msg)).
		Component(component).
		Category(errors.CategoryValidation).
		Build()
}
