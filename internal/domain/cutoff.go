package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date-only cutoff format.
const DateLayout = "2006-01-02"

// ParseCutoff parses a cutoff given as YYYY-MM-DD or RFC 3339.
// A date-only cutoff includes the whole day and resolves to its last instant in UTC.
// An empty string returns nil, meaning current balances.
func ParseCutoff(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		end := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return &end, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("ParseCutoff: %q is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return &t, nil
}

// FormatCutoff renders a cutoff for logs and labels. nil renders as "current".
func FormatCutoff(cutoff *time.Time) string {
	if cutoff == nil {
		return "current"
	}
	return cutoff.UTC().Format(DateLayout)
}
