package countdown

import (
	"fmt"

	"countdown/internal/core"
)

const (
	secondsPerDay    = 86400
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

var (
	longLabels  = [4]string{"Days", "Hours", "Minutes", "Seconds"}
	shortLabels = [4]string{"D", "H", "M", "S"}
)

// BuildSegments splits diffSeconds into days, hours, minutes and seconds, in
// that order. Values are zero-padded to two digits; days may grow wider.
// Negative input renders as all zeros.
func BuildSegments(diffSeconds int64, style core.LabelStyle) []core.Segment {
	if diffSeconds < 0 {
		diffSeconds = 0
	}

	values := [4]int64{
		diffSeconds / secondsPerDay,
		(diffSeconds % secondsPerDay) / secondsPerHour,
		(diffSeconds % secondsPerHour) / secondsPerMinute,
		diffSeconds % secondsPerMinute,
	}

	labels := longLabels
	if style == core.LabelStyleShort {
		labels = shortLabels
	}

	segments := make([]core.Segment, len(values))
	for i, v := range values {
		segments[i] = core.Segment{Label: labels[i], Value: fmt.Sprintf("%02d", v)}
	}
	return segments
}
