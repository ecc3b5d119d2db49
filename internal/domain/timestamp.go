package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DisplayLayout is the human readable timestamp format used in pages.
const DisplayLayout = "Jan 2, 2006 3:04 PM"

// timestampLayouts are tried in order. The SQLite CURRENT_TIMESTAMP form is
// what the reference ticket API emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp is a server time that tolerates the formats the API emits.
// Raw keeps a value none of the layouts understood so pages can still show it.
type Timestamp struct {
	time.Time
	Raw string
}

// UnmarshalJSON decodes null, empty or any of the known layouts. Any other
// string is kept verbatim in Raw.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Timestamp{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		t.Raw = strings.TrimSpace(raw)
		return nil
	}
	t.Time = parsed
	return nil
}

// IsSet reports whether the API sent a value, parsed or not.
func (t Timestamp) IsSet() bool {
	return !t.IsZero() || t.Raw != ""
}

// MarshalJSON encodes RFC 3339, the raw value when unparsed, or null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.Raw != "" {
			return json.Marshal(t.Raw)
		}
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// ParseTimestamp parses raw using the known layouts. Empty input is zero.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: unrecognised format %q", raw)
}

// Display formats the time for pages, or "" when unset.
func (t Timestamp) Display() string {
	if t.IsZero() {
		return t.Raw
	}
	return t.Time.Format(DisplayLayout)
}

// Truncate shortens s to limit runes followed by an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
