package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) { r.reported = append(r.reported, ee) }
func (r *recordingReporter) IsEnabled() bool             { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderContext(t *testing.T) {
	t.Parallel()

	ee := Newf("collection %q already exists", "Birds").
		Component("repository").
		Category(CategoryConflict).
		EntityContext("collection", 7).
		Context("operation", "create_collection").
		Build()

	assert.Equal(t, "repository", ee.GetComponent())
	assert.Equal(t, CategoryConflict, ee.Category)

	ctx := ee.GetContext()
	assert.Equal(t, "collection", ctx["entity"])
	assert.Equal(t, uint(7), ctx["entity_id"])
	assert.Equal(t, "create_collection", ctx["operation"])

	// The returned map is a copy.
	ctx["entity"] = "mutated"
	assert.Equal(t, "collection", ee.GetContext()["entity"])
}

func TestFileContextHidesPath(t *testing.T) {
	t.Parallel()

	ee := FileError(NewStd("open failed"), "/home/alice/photos/IMG_0001.JPG", 3<<20)

	assert.Equal(t, CategoryFileIO, ee.Category)
	assert.Equal(t, map[string]any{
		"file_type":          "absolute-path",
		"file_extension":     "jpg",
		"file_size_category": "medium",
	}, ee.GetContext())

	ee = New(NewStd("x")).FileContext("notes", 0).Build()
	assert.Equal(t, "relative-path", ee.GetContext()["file_type"])
	assert.Equal(t, "none", ee.GetContext()["file_extension"])
	assert.NotContains(t, ee.GetContext(), "file_size_category")
}

func TestSentinelMatching(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("tier not found")
	wrapped := New(fmt.Errorf("lookup tier: %w", sentinel)).
		Category(CategoryNotFound).
		Build()

	require.Error(t, wrapped)
	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsCategory(wrapped, CategoryDatabase))

	// Category equality through Is.
	assert.True(t, Is(wrapped, &EnhancedError{Category: CategoryNotFound}))
}

func TestDetectCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		component string
		want      ErrorCategory
	}{
		{"not found message", NewStd("entry not found"), "", CategoryNotFound},
		{"unique constraint", NewStd("UNIQUE constraint failed: tags.name"), "", CategoryConflict},
		{"invalid input", NewStd("invalid field type"), "", CategoryValidation},
		{"datastore component", NewStd("disk I/O error"), "datastore", CategoryDatabase},
		{"thumbnail component", NewStd("decode failed"), "thumbnail", CategoryImageCache},
		{"fallback", NewStd("boom"), "", CategoryGeneric},
		{"nested enhanced", New(NewStd("x")).Category(CategoryTransfer).Build(), "", CategoryTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(tt.err, tt.component))
		})
	}
}

func TestLookupComponentPrefersSubPackages(t *testing.T) {
	t.Parallel()

	fn := "github.com/tphakala/lifelist/internal/datastore/repository.(*entryRepository).Query"
	assert.Equal(t, "repository", lookupComponent(fn))
	assert.Equal(t, "datastore", lookupComponent("github.com/tphakala/lifelist/internal/datastore.(*Scope).Run"))
	assert.Equal(t, "cli", lookupComponent("github.com/tphakala/lifelist/cmd/entry.addCommand.func1"))
	assert.Equal(t, ComponentUnknown, lookupComponent("main.main"))
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("write failed")).Category(CategoryDatabase).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
}

func TestScrubMessageForPrivacy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{"dsn credentials", "dial mysql://lifelist:hunter2@db:3306/app", "[REDACTED]@", "hunter2"},
		{"url query", "GET https://bucket.example.com/key?X-Amz-Signature=abc", "?[REDACTED]", "abc"},
		{"password pair", "config password=hunter2 rejected", "[SECRET_REDACTED]", "hunter2"},
		{"home path", "open /home/alice/photos/a.jpg", "/home/[USER]", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := scrubMessageForPrivacy(tt.input)
			assert.Contains(t, got, tt.contains)
			assert.NotContains(t, got, tt.absent)
		})
	}
}
