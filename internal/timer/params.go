// Package timer runs the countdown pipeline: query parameters in, SVG markup
// or cached PNG bytes out.
package timer

import (
	"net/url"
	"strconv"
	"time"

	"countdown/internal/core"
	"countdown/internal/countdown"
	"countdown/internal/sanitize"
)

// Query parameter names understood by the image endpoints.
const (
	ParamLabel      = "label"
	ParamTarget     = "target"
	ParamTemplate   = "template"
	ParamBackground = "bg"
	ParamBox        = "box"
	ParamDigits     = "digits"
	ParamLabels     = "labels"
	ParamAccent     = "accent"
	ParamFont       = "font"
	ParamRadius     = "radius"
	ParamFontWeight = "fontWeight"
	ParamPadding    = "padding"
	ParamLabelStyle = "labelStyle"
)

// Params is a fully sanitized image request.
type Params struct {
	Style core.TimerStyle
	// Target is the deadline; zero when HasTarget is false
	Target    time.Time
	HasTarget bool
}

// ParseParams resolves every parameter in q to a valid value. It never fails:
// missing or malformed values take their defaults, and a missing or
// unparseable target yields zero time remaining.
func ParseParams(q url.Values) Params {
	// A present-but-empty label hides the header; an absent one uses the default.
	label := core.DefaultLabel
	if vals, ok := q[ParamLabel]; ok && len(vals) > 0 {
		label = sanitize.Label(&vals[0], "")
	}

	style := core.TimerStyle{
		Label: label,
		Colors: core.Colors{
			Background: sanitize.Color(q.Get(ParamBackground), core.DefaultColors.Background),
			Box:        sanitize.Color(q.Get(ParamBox), core.DefaultColors.Box),
			Digits:     sanitize.Color(q.Get(ParamDigits), core.DefaultColors.Digits),
			Labels:     sanitize.Color(q.Get(ParamLabels), core.DefaultColors.Labels),
			Accent:     sanitize.Color(q.Get(ParamAccent), core.DefaultColors.Accent),
		},
		Font:       sanitize.Font(q.Get(ParamFont), core.DefaultFont),
		Template:   sanitize.Template(q.Get(ParamTemplate)),
		Radius:     sanitize.IntInRange(q.Get(ParamRadius), core.MinRadius, core.MaxRadius, core.DefaultRadius),
		FontWeight: sanitize.IntInRange(q.Get(ParamFontWeight), core.MinFontWeight, core.MaxFontWeight, core.DefaultFontWeight),
		Padding:    sanitize.IntInRange(q.Get(ParamPadding), core.MinPadding, core.MaxPadding, core.DefaultPadding),
		LabelStyle: sanitize.LabelStyle(q.Get(ParamLabelStyle)),
	}

	target, ok := countdown.ParseTarget(q.Get(ParamTarget))
	return Params{Style: style, Target: target, HasTarget: ok}
}

// Encode serializes a style and target back into image query parameters.
func Encode(style core.TimerStyle, target time.Time) url.Values {
	q := url.Values{}
	q.Set(ParamTarget, countdown.FormatTarget(target))
	q.Set(ParamLabel, style.Label)
	q.Set(ParamTemplate, string(style.Template))
	q.Set(ParamBackground, style.Colors.Background)
	q.Set(ParamBox, style.Colors.Box)
	q.Set(ParamDigits, style.Colors.Digits)
	q.Set(ParamLabels, style.Colors.Labels)
	q.Set(ParamAccent, style.Colors.Accent)
	q.Set(ParamFont, style.Font)
	q.Set(ParamRadius, strconv.Itoa(style.Radius))
	q.Set(ParamLabelStyle, string(style.LabelStyle))
	q.Set(ParamFontWeight, strconv.Itoa(style.FontWeight))
	q.Set(ParamPadding, strconv.Itoa(style.Padding))
	return q
}
