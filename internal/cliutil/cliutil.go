// Package cliutil holds the argument parsing and table output shared by the
// lifelist subcommands.
package cliutil

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/errors"
)

const component = "cli"

// SkipOpen is a command annotation for commands that run without opening
// the application.
const SkipOpen = "lifelist/skip-open"

// DateLayout is the date format accepted and printed by the CLI.
const DateLayout = time.DateOnly

// NewTable returns a tab-aligned writer. Callers must Flush it.
func NewTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Row writes cells to t separated by tabs.
func Row(t io.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t, strings.Join(parts, "\t"))
}

// ParseID parses a positive numeric identifier.
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, Invalid("invalid id %q", s)
	}
	return uint(n), nil
}

// ParseDate parses an optional DateLayout date. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil, Invalid("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

// ParseAssignments splits key=value arguments. Keys are trimmed, values
// are kept as given.
func ParseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, Invalid("expected key=value, got %q", a)
		}
		out[key] = value
	}
	return out, nil
}

// ResolveCollection looks a collection up by numeric ID or by name.
func ResolveCollection(ctx context.Context, repos *repository.Repositories, arg string) (*entities.Collection, error) {
	if id, err := strconv.ParseUint(arg, 10, 64); err == nil {
		return repos.Collections.GetCollection(ctx, uint(id))
	}
	return repos.Collections.GetCollectionByName(ctx, arg)
}

// FormatDate prints t as a date, or "-" when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(DateLayout)
}

// OrDash returns the pointed-to string, or "-" when unset or empty.
func OrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// Title capitalizes each word of s for display.
func Title(s string) string {
	// a Caser holds state, so one per call
	return cases.Title(language.English).String(s)
}

// Invalid builds a validation error for bad command input.
func Invalid(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(component).
		Category(errors.CategoryValidation).
		Build()
}
