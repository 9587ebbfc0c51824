// Package render lays out countdown segments as standalone SVG documents.
//
// Each layout is a pure function of its inputs and sizes the canvas to its
// content. Render selects the layout; unknown templates fall back to boxed.
package render

import (
	"html"
	"math"
	"strconv"
	"strings"

	"countdown/internal/core"
)

// Options carries the geometry knobs shared by every layout.
type Options struct {
	Radius     int
	FontWeight int
	Padding    int
}

// OptionsFromStyle extracts layout options from a resolved style.
func OptionsFromStyle(style core.TimerStyle) Options {
	return Options{
		Radius:     style.Radius,
		FontWeight: style.FontWeight,
		Padding:    style.Padding,
	}
}

// Render produces the SVG markup for the given template.
func Render(t core.Template, segments []core.Segment, label string, colors core.Colors, font string, opts Options) string {
	switch t {
	case core.TemplateMinimal:
		return renderStacked(minimalLayout, segments, label, colors, font, opts)
	case core.TemplateMinimalNarrow:
		return renderStacked(minimalNarrowLayout, segments, label, colors, font, opts)
	case core.TemplateBoxed:
		return renderBoxed(segments, label, colors, font, opts)
	default:
		return renderBoxed(segments, label, colors, font, opts)
	}
}

// RenderStyle renders segments with every parameter taken from style.
func RenderStyle(style core.TimerStyle, segments []core.Segment) string {
	return Render(style.Template, segments, style.Label, style.Colors, style.Font, OptionsFromStyle(style))
}

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

func hasLabel(label string) bool {
	return strings.TrimSpace(label) != ""
}

// num prints a coordinate the shortest way: 75 not 75.0, 8.75 as is.
func num(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// esc escapes s for attribute values and character data alike. Runes XML
// cannot carry are dropped.
func esc(s string) string {
	return html.EscapeString(strings.Map(xmlRune, strings.ToValidUTF8(s, "")))
}

// xmlRune keeps r only if it is a legal XML 1.0 character.
func xmlRune(r rune) rune {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return r
	case r < 0x20, r == 0xFFFE, r == 0xFFFF:
		return -1
	case r >= 0xD800 && r <= 0xDFFF:
		return -1
	}
	return r
}
