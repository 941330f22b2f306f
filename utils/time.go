package utils

import (
	"fmt"
	"sync"
	"time"
)

const (
	dbDateTimeLayout = "2006-01-02 15:04:05"
	dateOnlyLayout   = "2006-01-02"
)

var (
	locMu    sync.RWMutex
	location = time.UTC
)

// SetLocation sets the timezone used for timestamps written to the database.
func SetLocation(name string) error {
	if name == "" {
		name = "UTC"
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load location %q: %w", name, err)
	}

	locMu.Lock()
	location = loc
	locMu.Unlock()
	return nil
}

// Location returns the configured timezone.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return location
}

// Now returns the current time in the configured timezone.
func Now() time.Time {
	return time.Now().In(Location())
}

// FormatDateTimeForDB formats a time for the VARCHAR datetime columns.
func FormatDateTimeForDB(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(Location()).Format(dbDateTimeLayout)
}

// ParseDBDate parses date strings retrieved from the database.
func ParseDBDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}

	loc := Location()
	if ts, err := time.ParseInLocation(dbDateTimeLayout, value, loc); err == nil {
		return ts, nil
	}

	if ts, err := time.ParseInLocation(dateOnlyLayout, value, loc); err == nil {
		return ts, nil
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.In(loc), nil
	}

	return time.Time{}, fmt.Errorf("unsupported db time format: %s", value)
}
