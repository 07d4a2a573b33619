package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for due dates
const DateLayout = "2006-01-02"

// ParseDueDate parses a YYYY-MM-DD date. An empty string yields nil.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed due date %q", ErrValidation, raw)
	}
	return &d, nil
}

// FormatDate formats an optional date, returning "" for nil
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}
