// Package errors builds categorized errors that carry the component and
// context they were raised in, and hands them to an optional telemetry
// reporter.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
)

// ErrorCategory groups errors for reporting and for callers that branch on
// the kind of failure.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryReferential   ErrorCategory = "referential"
	CategoryDatabase      ErrorCategory = "database"
	CategoryCancellation  ErrorCategory = "cancellation"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryFileParsing   ErrorCategory = "file-parsing"
	CategoryStorage       ErrorCategory = "photo-storage"
	CategoryImageCache    ErrorCategory = "image-cache"
	CategoryTransfer      ErrorCategory = "transfer"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryGeneric       ErrorCategory = "generic"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

const modulePrefix = "github.com/tphakala/lifelist/internal/errors"

// EnhancedError wraps an error with its category, component and context.
// It is immutable once built.
type EnhancedError struct {
	Err      error
	Category ErrorCategory
	Context  map[string]any

	component string
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError by category, anything else through the wrapped chain.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetComponent returns the component set on the builder or detected at Build.
func (ee *EnhancedError) GetComponent() string {
	if ee.component == "" {
		return ComponentUnknown
	}
	return ee.component
}

// GetContext returns a copy of the error context.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

// ErrorBuilder assembles an EnhancedError.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts an error wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts an error from a format string.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component names the component; it is detected from the call stack when
// telemetry is active and no name is given.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds one key/value pair.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// EntityContext records which stored entity the failure concerns.
func (eb *ErrorBuilder) EntityContext(entity string, id uint) *ErrorBuilder {
	if entity == "" {
		return eb
	}
	eb.Context("entity", entity)
	if id > 0 {
		eb.Context("entity_id", id)
	}
	return eb
}

// FileContext describes a file without recording its path.
func (eb *ErrorBuilder) FileContext(filePath string, fileSize int64) *ErrorBuilder {
	if filePath != "" {
		kind := "relative-path"
		if filepath.IsAbs(filePath) {
			kind = "absolute-path"
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
		if ext == "" {
			ext = "none"
		}
		eb.Context("file_type", kind)
		eb.Context("file_extension", ext)
	}
	if fileSize > 0 {
		eb.Context("file_size_category", sizeClass(fileSize))
	}
	return eb
}

// hasActiveReporting lets Build skip stack inspection when nobody consumes it.
var hasActiveReporting atomic.Bool

// Build creates the error and reports it when telemetry is active.
func (eb *ErrorBuilder) Build() *EnhancedError {
	reporting := hasActiveReporting.Load()

	component := eb.component
	if component == "" && reporting {
		component = detectComponent()
	}
	category := eb.category
	if category == "" {
		category = detectCategory(eb.err, component)
	}

	ee := &EnhancedError{
		Err:       eb.err,
		Category:  category,
		Context:   eb.context,
		component: component,
	}
	if reporting {
		reportToTelemetry(ee)
	}
	return ee
}

// components maps package paths to component names. Sub-packages come
// before their parents.
var components = []struct{ pkg, name string }{
	{"internal/datastore/repository", "repository"},
	{"internal/observability", "metrics"},
	{"internal/datastore", "datastore"},
	{"internal/photostore", "photostore"},
	{"internal/thumbnail", "thumbnail"},
	{"internal/telemetry", "telemetry"},
	{"internal/transfer", "transfer"},
	{"internal/conf", "configuration"},
	{"internal/app", "app"},
	{"/cmd", "cli"},
}

// detectComponent returns the component of the first caller outside this
// package.
func detectComponent() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, modulePrefix) {
			if c := lookupComponent(frame.Function); c != ComponentUnknown {
				return c
			}
		}
		if !more {
			return ComponentUnknown
		}
	}
}

func lookupComponent(funcName string) string {
	for _, c := range components {
		if strings.Contains(funcName, c.pkg) {
			return c.name
		}
	}
	return ComponentUnknown
}

// detectCategory derives a category from the error chain, its message and
// the component.
func detectCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var enhErr *EnhancedError
	if stderrors.As(err, &enhErr) && enhErr.Category != "" {
		return enhErr.Category
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return CategoryNotFound
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "unique constraint"):
		return CategoryConflict
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "required"):
		return CategoryValidation
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "permission denied"):
		return CategoryFileIO
	}

	switch component {
	case "datastore", "repository":
		return CategoryDatabase
	case "thumbnail":
		return CategoryImageCache
	case "photostore":
		return CategoryStorage
	case "transfer":
		return CategoryTransfer
	case "configuration":
		return CategoryConfiguration
	}
	return CategoryGeneric
}

func sizeClass(size int64) string {
	switch {
	case size < 1<<10:
		return "tiny"
	case size < 1<<20:
		return "small"
	case size < 10<<20:
		return "medium"
	case size < 100<<20:
		return "large"
	default:
		return "very-large"
	}
}

// FileError creates a file I/O error with anonymized file context.
func FileError(err error, filePath string, fileSize int64) *EnhancedError {
	return New(err).
		Category(CategoryFileIO).
		FileContext(filePath, fileSize).
		Build()
}

// NewStd creates a plain sentinel error.
func NewStd(text string) error {
	return stderrors.New(text)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory reports whether err wraps an EnhancedError of category.
func IsCategory(err error, category ErrorCategory) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Category == category
}

// IsNotFound reports a not-found error. Callers render these as an empty
// view rather than a failure.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
