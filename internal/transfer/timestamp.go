package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayouts are tried in order when decoding. Times without an
// offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// Timestamp is an ISO-8601 date or date-time in a document. It encodes as
// RFC 3339 and decodes timestamps with or without an offset.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, returning nil for a nil t.
func NewTimestamp(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return &Timestamp{Time: *t}
}

// TimePtr returns the wrapped time, nil for a nil ts.
func (ts *Timestamp) TimePtr() *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

// MarshalJSON encodes the time as RFC 3339.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339, offset-less date-times and plain dates.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid ISO-8601 timestamp %q", s)
}
