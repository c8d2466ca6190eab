package storage

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are the accepted stored forms, most specific first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp cell from its stored string form.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// FormatTimestamp renders a timestamp into its canonical stored form
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
