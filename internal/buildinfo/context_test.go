package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{"nil context", nil, UnknownValue},
		{"empty version", NewContext("", "2026-01-01"), UnknownValue},
		{"valid version", NewContext("1.0.0", "2026-01-01"), "1.0.0"},
		{"pre-release tag", NewContext("1.0.0-beta.1", "2026-01-01"), "1.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctx.GetVersion())
		})
	}
}

func TestContextBuildDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{"nil context", nil, UnknownValue},
		{"empty build date", NewContext("1.0.0", ""), UnknownValue},
		{"valid build date", NewContext("1.0.0", "2026-01-01T12:00:00Z"), "2026-01-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctx.GetBuildDate())
		})
	}
}

func TestContextString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1.2.0 (built 2026-03-01)", NewContext("1.2.0", "2026-03-01").String())
	assert.Equal(t, "unknown (built unknown)", (*Context)(nil).String())
}
