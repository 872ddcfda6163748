// Package fieldtype defines the typed variants of custom collection fields.
//
// A field's type is one of Text, Number, Date, Boolean, Choice or Rating.
// Choice carries its ordered options and Rating its maximum, so the data each
// variant needs travels with the variant itself. Stored attribute values are
// always strings; Validate reports whether a string is meaningful for the type.
package fieldtype

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/lifelist/internal/errors"
)

// Kind is the persisted discriminator of a field type.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindDate    Kind = "date"
	KindBoolean Kind = "boolean"
	KindChoice  Kind = "choice"
	KindRating  Kind = "rating"
)

// DefaultRatingMax is used when a rating field declares no maximum.
const DefaultRatingMax = 5

// DateLayout is the accepted layout for date values.
const DateLayout = time.DateOnly

// ErrUnknownKind is returned for kind strings outside the supported set.
var ErrUnknownKind = errors.NewStd("unknown field type")

// Kinds lists every supported kind in display order.
func Kinds() []Kind {
	return []Kind{KindText, KindNumber, KindDate, KindBoolean, KindChoice, KindRating}
}

// ParseKind accepts a case-insensitive kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Kinds(), k) {
		return k, nil
	}
	return "", errors.New(fmt.Errorf("%w: %q", ErrUnknownKind, s)).
		Component("fieldtype").
		Category(errors.CategoryValidation).
		Build()
}

// Option is one selectable value of a Choice field.
type Option struct {
	Value string
	Label string
}

// DisplayLabel falls back to the value when no label is set.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// Type is a field type variant.
type Type interface {
	Kind() Kind
	// Validate reports whether value is acceptable. Empty values mean "no value"
	// and are always accepted.
	Validate(value string) error
	isType()
}

type Text struct{}

type Number struct{}

type Date struct{}

type Boolean struct{}

// Choice restricts values to its options, in display order.
type Choice struct {
	Options []Option
}

// Rating accepts integers from 1 through Max.
type Rating struct {
	Max int
}

func (Text) Kind() Kind    { return KindText }
func (Number) Kind() Kind  { return KindNumber }
func (Date) Kind() Kind    { return KindDate }
func (Boolean) Kind() Kind { return KindBoolean }
func (Choice) Kind() Kind  { return KindChoice }
func (Rating) Kind() Kind  { return KindRating }

func (Text) isType()    {}
func (Number) isType()  {}
func (Date) isType()    {}
func (Boolean) isType() {}
func (Choice) isType()  {}
func (Rating) isType()  {}

func (Text) Validate(string) error { return nil }

func (Number) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		return invalidValue(KindNumber, value)
	}
	return nil
}

func (Date) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(value)); err != nil {
		return invalidValue(KindDate, value)
	}
	return nil
}

func (Boolean) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return invalidValue(KindBoolean, value)
	}
	return nil
}

func (c Choice) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	for _, opt := range c.Options {
		if opt.Value == value {
			return nil
		}
	}
	return invalidValue(KindChoice, value)
}

func (r Rating) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 || n > r.EffectiveMax() {
		return invalidValue(KindRating, value)
	}
	return nil
}

// EffectiveMax returns Max or DefaultRatingMax when unset.
func (r Rating) EffectiveMax() int {
	if r.Max <= 0 {
		return DefaultRatingMax
	}
	return r.Max
}

// New builds the variant for kind. options are used by Choice and max by Rating;
// both are ignored for other kinds.
func New(kind Kind, options []Option, maxRating int) (Type, error) {
	switch kind {
	case KindText:
		return Text{}, nil
	case KindNumber:
		return Number{}, nil
	case KindDate:
		return Date{}, nil
	case KindBoolean:
		return Boolean{}, nil
	case KindChoice:
		return Choice{Options: slices.Clone(options)}, nil
	case KindRating:
		return Rating{Max: maxRating}, nil
	default:
		return nil, errors.New(fmt.Errorf("%w: %q", ErrUnknownKind, kind)).
			Component("fieldtype").
			Category(errors.CategoryValidation).
			Build()
	}
}

// OptionsOf returns the options of a Choice, nil for any other type.
func OptionsOf(t Type) []Option {
	if c, ok := t.(Choice); ok {
		return slices.Clone(c.Options)
	}
	return nil
}

// MaxOf returns the effective maximum of a Rating, zero for any other type.
func MaxOf(t Type) int {
	if r, ok := t.(Rating); ok {
		return r.EffectiveMax()
	}
	return 0
}

func invalidValue(kind Kind, value string) error {
	return errors.Newf("invalid %s value %q", kind, value).
		Component("fieldtype").
		Category(errors.CategoryValidation).
		Context("field_type", string(kind)).
		Build()
}
