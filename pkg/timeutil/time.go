package timeutil

import "time"

const (
	// CompactLayout renders yyyyMMddHHmmss
	CompactLayout = "20060102150405"
	// DateStampLayout renders yyyyMMdd
	DateStampLayout = "20060102"
	// DayLayout is the yyyy-MM-dd form accepted from callers
	DayLayout = "2006-01-02"
)

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ParseDate parses a date string and returns a UTC time
func ParseDate(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseDay parses yyyy-MM-dd as midnight UTC
func ParseDay(value string) (time.Time, error) {
	return ParseDate(DayLayout, value)
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 23, 59, 59, 999999999, time.UTC)
}

// DayRange returns [start of t's day, start of the next day) in UTC
func DayRange(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// Yesterday returns midnight UTC of the day before now
func Yesterday(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, -1)
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatCompact renders t as yyyyMMddHHmmss in UTC
func FormatCompact(t time.Time) string {
	return t.UTC().Format(CompactLayout)
}

// FormatCompactPtr renders nil as an empty string
func FormatCompactPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatCompact(*t)
}

// DateStamp renders t as yyyyMMdd in UTC
func DateStamp(t time.Time) string {
	return t.UTC().Format(DateStampLayout)
}
