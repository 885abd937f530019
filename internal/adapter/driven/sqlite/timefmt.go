package sqlite

import (
	"fmt"
	"time"
)

// storedTimeLayout is fixed width so text order on the column matches time
// order. RFC3339Nano trims trailing zeros and would not.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders t in the single format this package writes.
func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// parseTime accepts RFC 3339 values written by formatTime as well as the
// "YYYY-MM-DD HH:MM:SS" form produced by SQLite's CURRENT_TIMESTAMP.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

func parseNullTime(ns *string) (*time.Time, error) {
	if ns == nil || *ns == "" {
		return nil, nil
	}
	t, err := parseTime(*ns)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
