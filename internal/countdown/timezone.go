package countdown

import (
	"slices"
	"time"
	_ "time/tzdata" // zones resolve even on hosts without zoneinfo

	"countdown/internal/core"
)

// knownTimezones are the IANA zones offered by the configuration form.
var knownTimezones = []string{
	"Africa/Cairo",
	"Africa/Johannesburg",
	"Africa/Lagos",
	"Africa/Nairobi",
	"America/Anchorage",
	"America/Argentina/Buenos_Aires",
	"America/Bogota",
	"America/Chicago",
	"America/Denver",
	"America/Halifax",
	"America/Los_Angeles",
	"America/Mexico_City",
	"America/New_York",
	"America/Phoenix",
	"America/Sao_Paulo",
	"America/Toronto",
	"America/Vancouver",
	"Asia/Bangkok",
	"Asia/Dubai",
	"Asia/Hong_Kong",
	"Asia/Jakarta",
	"Asia/Jerusalem",
	"Asia/Karachi",
	"Asia/Kolkata",
	"Asia/Manila",
	"Asia/Seoul",
	"Asia/Shanghai",
	"Asia/Singapore",
	"Asia/Tokyo",
	"Atlantic/Reykjavik",
	"Australia/Melbourne",
	"Australia/Perth",
	"Australia/Sydney",
	"Europe/Amsterdam",
	"Europe/Athens",
	"Europe/Berlin",
	"Europe/Dublin",
	"Europe/Istanbul",
	"Europe/Lisbon",
	"Europe/London",
	"Europe/Madrid",
	"Europe/Moscow",
	"Europe/Paris",
	"Europe/Riga",
	"Europe/Rome",
	"Europe/Stockholm",
	"Europe/Warsaw",
	"Europe/Zurich",
	"Pacific/Auckland",
	"Pacific/Honolulu",
	"UTC",
}

// Timezones returns the sorted list of selectable timezone identifiers.
func Timezones() []string {
	return slices.Clone(knownTimezones)
}

// ResolveTimezone returns the location for a known timezone name and UTC for
// anything else, including names the host's tz database cannot load.
func ResolveTimezone(name string) *time.Location {
	if name == "" || name == core.DefaultTimezone {
		return time.UTC
	}
	if _, found := slices.BinarySearch(knownTimezones, name); !found {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
