package transfer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 utc", `"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", `"2024-05-01T12:00:00+02:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"no offset", `"2024-05-01T10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"no offset fraction", `"2024-05-01T10:00:00.250000"`, time.Date(2024, 5, 1, 10, 0, 0, 250_000_000, time.UTC)},
		{"space separator", `"2024-05-01 10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"date only", `"2024-05-01"`, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`"yesterday"`, `"2024-13-01"`, `12345`} {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(in), &ts), in)
	}
}

func TestTimestampNullAndRoundTrip(t *testing.T) {
	t.Parallel()

	var holder struct {
		At *Timestamp `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at": null}`), &holder))
	assert.Nil(t, holder.At)
	assert.Nil(t, holder.At.TimePtr())

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	holder.At = NewTimestamp(&at)
	data, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at": "2024-05-01T10:00:00Z"}`, string(data))
}
