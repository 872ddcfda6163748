package conf

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/fieldtype"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Fallback values returned for type names the catalog does not know.
const (
	FallbackEntryTerm       = "item"
	FallbackObservationTerm = "entry"
)

// FallbackTiers is the tier pair used for unknown collection types.
func FallbackTiers() []string {
	return []string{"owned", "wanted"}
}

// FieldTemplate is a default custom field carried by a collection type.
type FieldTemplate struct {
	Name     string
	Type     fieldtype.Type
	Required bool
}

// Kind returns the persisted kind of the field type.
func (f FieldTemplate) Kind() fieldtype.Kind {
	return f.Type.Kind()
}

// TypeTemplate describes one built-in collection type.
type TypeTemplate struct {
	Name            string
	Description     string
	Icon            string
	Tiers           []string
	EntryTerm       string
	ObservationTerm string
	DefaultFields   []FieldTemplate
}

func (t TypeTemplate) clone() TypeTemplate {
	out := t
	out.Tiers = slices.Clone(t.Tiers)
	out.DefaultFields = make([]FieldTemplate, len(t.DefaultFields))
	for i, f := range t.DefaultFields {
		// rebuild so Choice options are not shared with the catalog
		typ, _ := fieldtype.New(f.Type.Kind(), fieldtype.OptionsOf(f.Type), fieldtype.MaxOf(f.Type))
		out.DefaultFields[i] = FieldTemplate{Name: f.Name, Type: typ, Required: f.Required}
	}
	return out
}

// Catalog is the read-only registry of collection type templates.
// A Catalog never changes after it is built; accessors return copies.
type Catalog struct {
	types []TypeTemplate
	index map[string]int
}

// Names returns the type names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.types))
	for i := range c.types {
		names[i] = c.types[i].Name
	}
	return names
}

// Types returns copies of every template in catalog order.
func (c *Catalog) Types() []TypeTemplate {
	out := make([]TypeTemplate, len(c.types))
	for i := range c.types {
		out[i] = c.types[i].clone()
	}
	return out
}

// Get returns the template for name and whether it exists.
func (c *Catalog) Get(name string) (TypeTemplate, bool) {
	i, ok := c.index[strings.ToLower(name)]
	if !ok {
		return TypeTemplate{}, false
	}
	return c.types[i].clone(), true
}

// Lookup returns the template for name. Unknown names get a generic
// template with FallbackTiers, the fallback terms and no fields.
func (c *Catalog) Lookup(name string) TypeTemplate {
	if t, ok := c.Get(name); ok {
		return t
	}
	return TypeTemplate{
		Name:            name,
		Tiers:           FallbackTiers(),
		EntryTerm:       FallbackEntryTerm,
		ObservationTerm: FallbackObservationTerm,
		DefaultFields:   []FieldTemplate{},
	}
}

// TiersFor returns the template tiers of name, honoring the fallback.
func (c *Catalog) TiersFor(name string) []string {
	return c.Lookup(name).Tiers
}

type catalogFile struct {
	Types []catalogType `yaml:"types"`
}

type catalogType struct {
	Name            string         `yaml:"name"`
	Description     string         `yaml:"description"`
	Icon            string         `yaml:"icon"`
	Tiers           []string       `yaml:"tiers"`
	EntryTerm       string         `yaml:"entry_term"`
	ObservationTerm string         `yaml:"observation_term"`
	DefaultFields   []catalogField `yaml:"default_fields"`
}

type catalogField struct {
	Name     string          `yaml:"name"`
	Type     string          `yaml:"type"`
	Required bool            `yaml:"required"`
	Options  []catalogOption `yaml:"options"`
	Max      int             `yaml:"max"`
}

type catalogOption struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file. An empty path loads the embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(catalogYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("catalog_path", path).
			Build()
	}

	c, err := ParseCatalog(data)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("catalog_path", path).
			Build()
	}
	return c, nil
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}

	c := &Catalog{
		types: make([]TypeTemplate, 0, len(doc.Types)),
		index: make(map[string]int, len(doc.Types)),
	}

	var problems []string
	for _, ct := range doc.Types {
		name := strings.TrimSpace(ct.Name)
		if name == "" {
			problems = append(problems, "collection type without a name")
			continue
		}
		key := strings.ToLower(name)
		if _, dup := c.index[key]; dup {
			problems = append(problems, fmt.Sprintf("duplicate collection type %q", name))
			continue
		}

		tmpl := TypeTemplate{
			Name:            name,
			Description:     ct.Description,
			Icon:            ct.Icon,
			Tiers:           dedupeTiers(ct.Tiers),
			EntryTerm:       valueOr(ct.EntryTerm, FallbackEntryTerm),
			ObservationTerm: valueOr(ct.ObservationTerm, FallbackObservationTerm),
		}
		if len(tmpl.Tiers) == 0 {
			tmpl.Tiers = FallbackTiers()
		}

		for _, cf := range ct.DefaultFields {
			field, err := cf.template()
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			tmpl.DefaultFields = append(tmpl.DefaultFields, field)
		}

		c.index[key] = len(c.types)
		c.types = append(c.types, tmpl)
	}

	if len(problems) > 0 {
		return nil, ValidationError{Errors: problems}
	}
	return c, nil
}

func (cf catalogField) template() (FieldTemplate, error) {
	if strings.TrimSpace(cf.Name) == "" {
		return FieldTemplate{}, errors.NewStd("field without a name")
	}
	kind, err := fieldtype.ParseKind(cf.Type)
	if err != nil {
		return FieldTemplate{}, fmt.Errorf("field %q: %w", cf.Name, err)
	}
	if kind == fieldtype.KindChoice && len(cf.Options) == 0 {
		return FieldTemplate{}, fmt.Errorf("choice field %q has no options", cf.Name)
	}

	opts := make([]fieldtype.Option, 0, len(cf.Options))
	for _, o := range cf.Options {
		opts = append(opts, fieldtype.Option{Value: o.Value, Label: o.Label})
	}
	typ, err := fieldtype.New(kind, opts, cf.Max)
	if err != nil {
		return FieldTemplate{}, err
	}
	return FieldTemplate{Name: strings.TrimSpace(cf.Name), Type: typ, Required: cf.Required}, nil
}

func dedupeTiers(tiers []string) []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
