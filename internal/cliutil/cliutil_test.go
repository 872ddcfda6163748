package cliutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/errors"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2026-05-17")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.May, d.Month())
	assert.Equal(t, "2026-05-17", FormatDate(d))

	_, err = ParseDate("17.5.2026")
	require.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	got, err := ParseAssignments([]string{"Author=Frank Herbert", " Year =1965", "Note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Author": "Frank Herbert", "Year": "1965", "Note": "a=b"}, got)

	_, err = ParseAssignments([]string{"novalue"})
	require.Error(t, err)
	_, err = ParseAssignments([]string{"=x"})
	require.Error(t, err)
}

func TestTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tw := NewTable(&buf)
	Row(tw, "ID", "NAME")
	Row(tw, 1, "Blackbird")
	require.NoError(t, tw.Flush())
	assert.Equal(t, "ID  NAME\n1   Blackbird\n", buf.String())
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", FormatDate(nil))
	assert.Equal(t, "-", OrDash(nil))
	empty := ""
	assert.Equal(t, "-", OrDash(&empty))
	tier := "Heard"
	assert.Equal(t, "Heard", OrDash(&tier))
	assert.Equal(t, "Want To Read", Title("want to read"))
}
