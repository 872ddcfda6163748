package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/buildinfo"
	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	s := &conf.Settings{}
	s.Main.DataDir = t.TempDir()
	s.Datastore.Driver = conf.DriverSQLite
	s.Datastore.SQLite.Path = "lifelist.db"
	s.Datastore.ChunkSize = conf.DefaultChunkSize
	s.Photos.Driver = conf.PhotoDriverFS
	s.Photos.BaseDir = "photos"
	s.Thumbnails.CacheCapacity = 16
	s.Logging = logger.LoggingConfig{
		DefaultLevel: "error",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: false},
	}
	a := app.New(s, buildinfo.NewContext("1.4.0", "2026-10-01"))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// run executes one command line against a and returns its stdout.
func run(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := RootCommand(a)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	// PersistentPostRunE is skipped on failure
	_ = a.Close()
	return out.String(), err
}

func mustRun(t *testing.T, a *app.App, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionDoesNotOpen(t *testing.T) {
	a := newTestApp(t)
	out := mustRun(t, a, "version")
	assert.Equal(t, "lifelist 1.4.0 (built 2026-10-01)\n", out)
	assert.NoFileExists(t, filepath.Join(a.Settings.Main.DataDir, "lifelist.db"))
}

func TestCollectionLifecycle(t *testing.T) {
	a := newTestApp(t)

	out := mustRun(t, a, "collection", "create", "Reading", "--type", "Books", "--label", "Goodreads")
	assert.Contains(t, out, `Created collection "Reading"`)

	_, err := run(t, a, "collection", "create", "Reading")
	require.Error(t, err, "names are unique")

	out = mustRun(t, a, "collection", "list")
	assert.Contains(t, out, "Reading")
	assert.Contains(t, out, "Books")

	out = mustRun(t, a, "collection", "tiers", "Reading")
	assert.Equal(t, "read\ncurrently reading\nwant to read\nabandoned\n", out)

	mustRun(t, a, "collection", "set-tiers", "Reading", "read", "want to read")
	mustRun(t, a, "collection", "add-tier", "Reading", "owned")
	out = mustRun(t, a, "collection", "tiers", "Reading")
	assert.Equal(t, "read\nwant to read\nowned\n", out)

	out = mustRun(t, a, "collection", "show", "Reading")
	assert.Contains(t, out, "Label:      Goodreads")
	assert.Contains(t, out, "Author")

	mustRun(t, a, "collection", "rename", "Reading", "Books read")
	_, err = run(t, a, "collection", "show", "Reading")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = run(t, a, "collection", "delete", "Books read")
	require.Error(t, err, "delete needs --yes")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	out = mustRun(t, a, "collection", "delete", "Books read", "--yes")
	assert.Contains(t, out, `Deleted collection "Books read"`)
}

func TestEntryWorkflow(t *testing.T) {
	a := newTestApp(t)
	cover := writeFile(t, "cover.jpg", "not really a jpeg")

	mustRun(t, a, "collection", "create", "Reading", "--type", "Books")
	mustRun(t, a, "field", "add", "Reading", "Format", "--type", "choice",
		"--option", "paperback", "--option", "ebook:E-book")

	out := mustRun(t, a, "field", "list", "Reading")
	assert.Contains(t, out, "options: paperback, ebook")

	out = mustRun(t, a, "entry", "add", "Reading", "Dune",
		"--date", "2026-01-05", "--tier", "read",
		"--attr", "Author=Frank Herbert", "--attr", "Format=paperback",
		"--tag", "genre:sci-fi", "--tag", "classic",
		"--photo", cover)
	assert.Contains(t, out, `Added entry "Dune" (id 1)`)
	assert.FileExists(t, filepath.Join(a.Settings.Main.DataDir, "photos",
		"collection_1", "entry_1", "original", "1_cover.jpg"))

	mustRun(t, a, "entry", "add", "Reading", "Emma", "--tier", "want to read")

	out = mustRun(t, a, "entry", "list", "Reading", "--sort", "name")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "2026-01-05")
	assert.Contains(t, out, "2 of 2 entries")

	out = mustRun(t, a, "entry", "list", "Reading", "--tag", "sci-fi")
	assert.Contains(t, out, "1 of 1 entries")

	out = mustRun(t, a, "entry", "show", "1")
	assert.Contains(t, out, "Frank Herbert")
	assert.Contains(t, out, "classic, sci-fi")
	assert.Contains(t, out, "(primary)")
	assert.Zero(t, a.Details.Len(), "the detail scope is released")

	mustRun(t, a, "entry", "edit", "1", "--notes", "reread", "--tier", "")
	out = mustRun(t, a, "entry", "show", "1")
	assert.Contains(t, out, "reread")
	assert.Contains(t, out, "Frank Herbert", "untouched attributes survive an edit")

	out = mustRun(t, a, "entry", "names", "Reading")
	assert.Equal(t, "Dune\nEmma\n", out)

	out = mustRun(t, a, "thumbs", "paths", "1")
	assert.Contains(t, out, "collection_1/entry_1/thumbnails/1_sm.jpg")

	out = mustRun(t, a, "thumbs", "warm", "Reading")
	assert.Contains(t, out, "0 of 1 sm thumbnails loaded")

	mustRun(t, a, "entry", "delete", "1")
	assert.NoDirExists(t, filepath.Join(a.Settings.Main.DataDir, "photos", "collection_1", "entry_1"))
}

func TestEntryAddRollsBack(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "collection", "create", "Reading", "--type", "Books")

	_, err := run(t, a, "entry", "add", "Reading", "Dune", "--attr", "Colour=blue")
	require.Error(t, err)

	out := mustRun(t, a, "entry", "list", "Reading")
	assert.Contains(t, out, "0 of 0 entries")
}

func TestTagCommands(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "tag", "add", "birds", "--category", "taxon")
	mustRun(t, a, "tag", "add", "waders")
	mustRun(t, a, "tag", "relate", "waders", "birds")

	_, err := run(t, a, "tag", "relate", "birds", "waders")
	require.Error(t, err, "cycles are rejected")

	out := mustRun(t, a, "tag", "tree")
	assert.Equal(t, "birds\n  waders\n", out)

	out = mustRun(t, a, "tag", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "taxon")
	assert.Contains(t, lines[2], "-", "uncategorised tags come last")
}

func TestClassifyImport(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "collection", "create", "Birds", "--type", "Wildlife")
	csvFile := writeFile(t, "ioc.csv", "Scientific,English,Parent\n"+
		"Turdidae,Thrushes,\n"+
		"Turdus merula,Blackbird,Turdidae\n")

	out := mustRun(t, a, "classify", "import", "Birds", csvFile, "--version", "14.1",
		"--map", "name=Scientific", "--map", "alternate_name=English", "--map", "parent_id=Parent")
	assert.Contains(t, out, `Classification "ioc"`)
	assert.Contains(t, out, "2 imported")
	assert.Contains(t, out, "1 linked")

	out = mustRun(t, a, "classify", "list", "Birds")
	assert.Contains(t, out, "14.1")
	assert.Contains(t, out, "*")

	out = mustRun(t, a, "classify", "tree", "1")
	assert.Equal(t, "Turdidae (Thrushes)\n  Turdus merula (Blackbird)\n", out)

	out = mustRun(t, a, "classify", "search", "1", "black")
	assert.Contains(t, out, "Turdus merula")

	_, err := run(t, a, "classify", "import", "Birds", csvFile, "--map", "code=Code")
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	a := newTestApp(t)
	cover := writeFile(t, "cover.jpg", "jpeg")
	exportDir := filepath.Join(t.TempDir(), "export")

	mustRun(t, a, "collection", "create", "Reading", "--type", "Books")
	mustRun(t, a, "entry", "add", "Reading", "Dune", "--attr", "Author=Frank Herbert", "--photo", cover)

	out := mustRun(t, a, "export", "Reading", exportDir)
	assert.Contains(t, out, "Reading.json")
	assert.FileExists(t, filepath.Join(exportDir, "Reading.json"))

	_, err := run(t, a, "import", filepath.Join(exportDir, "Reading.json"))
	require.Error(t, err, "the name is taken")
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	mustRun(t, a, "collection", "delete", "Reading", "--yes")
	out = mustRun(t, a, "import", filepath.Join(exportDir, "Reading.json"))
	assert.Contains(t, out, "1 entries")
	assert.Contains(t, out, "(1 files)")

	out = mustRun(t, a, "entry", "list", "Reading")
	assert.Contains(t, out, "Dune")
}

func TestTypes(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "collection", "create", "Minerals", "--type", "Minerals")

	out := mustRun(t, a, "types")
	assert.Contains(t, out, "Wildlife")
	assert.Regexp(t, `Minerals\s+\S+\s+\S+\s+custom`, out)
}

func TestBackup(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "collection", "create", "Birds")

	dir := t.TempDir()
	out := mustRun(t, a, "backup", dir)
	assert.Contains(t, out, "Backup written to")

	matches, err := filepath.Glob(filepath.Join(dir, "lifelist-sqlite-*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
