// Package core provides the value types shared by the countdown rendering pipeline.
package core

// Template identifies one of the closed set of countdown layouts.
type Template string

const (
	TemplateBoxed         Template = "boxed"
	TemplateMinimal       Template = "minimal"
	TemplateMinimalNarrow Template = "minimal-narrow"
)

// Templates lists every supported layout in display order.
var Templates = []Template{TemplateBoxed, TemplateMinimal, TemplateMinimalNarrow}

// Valid reports whether t names a known layout.
func (t Template) Valid() bool {
	switch t {
	case TemplateBoxed, TemplateMinimal, TemplateMinimalNarrow:
		return true
	}
	return false
}

// LabelStyle selects the verbosity of the unit labels under each segment.
type LabelStyle string

const (
	LabelStyleLong  LabelStyle = "long"
	LabelStyleShort LabelStyle = "short"
)

// Segment is one labeled unit of the countdown (days, hours, minutes or seconds).
type Segment struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Colors is the palette of a rendered timer. All values are #RGB or #RRGGBB.
type Colors struct {
	Background string `json:"background"`
	Box        string `json:"box"`
	Digits     string `json:"digits"`
	Labels     string `json:"labels"`
	Accent     string `json:"accent"`
}

// TimerStyle is the fully resolved set of rendering parameters.
// Every field always holds a valid value.
type TimerStyle struct {
	Label      string     `json:"label"`
	Colors     Colors     `json:"colors"`
	Font       string     `json:"font"`
	Template   Template   `json:"template"`
	Radius     int        `json:"radius"`
	FontWeight int        `json:"fontWeight"`
	Padding    int        `json:"padding"`
	LabelStyle LabelStyle `json:"labelStyle"`
}

// Limits on user-supplied numeric and text parameters.
const (
	MaxLabelLength = 60

	MinRadius     = 0
	MaxRadius     = 50
	MinFontWeight = 100
	MaxFontWeight = 900
	MinPadding    = 0
	MaxPadding    = 150
)

// Defaults applied when a parameter is absent or invalid.
const (
	DefaultLabel      = "Offer Ends In"
	DefaultTimezone   = "UTC"
	DefaultFont       = "TikTok Sans, 'Outfit', sans-serif"
	DefaultTemplate   = TemplateBoxed
	DefaultRadius     = 16
	DefaultFontWeight = 700
	DefaultPadding    = 20
	DefaultLabelStyle = LabelStyleLong
)

// DefaultColors is the stone/yellow palette used when no colors are supplied.
var DefaultColors = Colors{
	Background: "#1c1917",
	Box:        "#292524",
	Digits:     "#facc15",
	Labels:     "#a8a29e",
	Accent:     "#facc15",
}

// DefaultStyle returns a TimerStyle populated with every default.
func DefaultStyle() TimerStyle {
	return TimerStyle{
		Label:      DefaultLabel,
		Colors:     DefaultColors,
		Font:       DefaultFont,
		Template:   DefaultTemplate,
		Radius:     DefaultRadius,
		FontWeight: DefaultFontWeight,
		Padding:    DefaultPadding,
		LabelStyle: DefaultLabelStyle,
	}
}
