package domain

import (
	"fmt"
	"time"
)

// DefaultExpiryWindowDays is the lookahead horizon used to flag upcoming expirations
const DefaultExpiryWindowDays = 30

// DateLayout is the wire and storage format for expiration dates
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date at UTC midnight. Expiration
// comparisons happen at day granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date string
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a date in the YYYY-MM-DD wire format
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsExpired reports whether exp is present and strictly before today.
// A nil expiration never expires.
func IsExpired(exp *time.Time, now time.Time) bool {
	if exp == nil {
		return false
	}
	return Day(*exp).Before(Day(now))
}

// IsExpiringSoon reports whether exp falls within [today, today+windowDays],
// both ends inclusive. An expiration landing exactly on today counts as
// expiring soon, not expired.
func IsExpiringSoon(exp *time.Time, now time.Time, windowDays int) bool {
	if exp == nil {
		return false
	}
	d := Day(*exp)
	today := Day(now)
	end := today.AddDate(0, 0, windowDays)
	return !d.Before(today) && !d.After(end)
}

// DaysUntil returns the number of whole days from now until exp, negative
// when exp is already past.
func DaysUntil(exp time.Time, now time.Time) int {
	return int(Day(exp).Sub(Day(now)).Hours() / 24)
}
