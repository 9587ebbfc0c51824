// Package countdown resolves target deadlines and splits the remaining time
// into the four displayed segments.
package countdown

import (
	"strings"
	"time"
)

// FormLayout is the datetime-local shape used by the configuration form.
const FormLayout = "2006-01-02T15:04"

// targetLayouts are tried in order. Layouts without a zone are read as UTC.
var targetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	FormLayout,
	"2006-01-02",
}

// ParseTarget parses an ISO-8601 deadline such as 2099-01-01T00:00:00.000Z.
// The boolean is false when raw is empty or not a recognizable timestamp.
func ParseTarget(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range targetLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SecondsRemaining returns whole seconds from now until target, floored and
// clamped at zero so expired deadlines never go negative.
func SecondsRemaining(target, now time.Time) int64 {
	diff := target.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int64(diff / time.Second)
}

// ResolveFormTarget interprets raw (YYYY-MM-DDTHH:mm) as wall-clock time in
// loc. When raw is missing or malformed the target defaults to two days from
// now at the top of the hour in loc.
func ResolveFormTarget(raw string, loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if raw != "" {
		if t, err := time.ParseInLocation(FormLayout, strings.TrimSpace(raw), loc); err == nil {
			return t
		}
	}
	local := now.In(loc).AddDate(0, 0, 2)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}

// FormatDateTimeLocal formats t for a datetime-local input in loc.
func FormatDateTimeLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(FormLayout)
}

// FormatTarget renders an absolute deadline the way image URLs carry it.
func FormatTarget(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
