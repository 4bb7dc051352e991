package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitguard/internal/constants"
)

// ParseDay parses a calendar day (YYYY-MM-DD) as midnight UTC.
// Calendar arithmetic is done in UTC so that DST transitions never turn
// "one day earlier" into 23 or 25 hours.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(constants.DateFormat, day, time.UTC)
}

// FormatDay formats t as a calendar day in t's own location.
func FormatDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// AddDays returns the calendar day n days after day (n may be negative).
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}

// IsNextDay reports whether next is exactly one calendar day after prev.
func IsNextDay(prev, next time.Time) bool {
	return prev.AddDate(0, 0, 1).Equal(next)
}

// ValidateDay checks that day is a well-formed YYYY-MM-DD calendar day.
func ValidateDay(day string) error {
	if _, err := ParseDay(day); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	return nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// GetTodayInTimezone returns today's date string (YYYY-MM-DD) in the specified timezone.
func GetTodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return FormatDay(now), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
