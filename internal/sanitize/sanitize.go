// Package sanitize turns untrusted query-string values into safe rendering
// parameters. Every function is total: malformed input yields the fallback,
// never an error.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"countdown/internal/core"
)

var (
	hexColorPattern   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	fontDisallowedSet = regexp.MustCompile(`[^a-zA-Z0-9,\- \t\n\r]`)
)

// Color normalizes a hex color. A missing leading '#' is added; anything
// other than #RGB or #RRGGBB returns fallback.
func Color(input, fallback string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	if hexColorPattern.MatchString(value) {
		return value
	}
	return fallback
}

// Font strips every character outside letters, digits, commas, hyphens,
// spaces, tabs and line breaks so the value is safe inside an SVG attribute.
func Font(input, fallback string) string {
	cleaned := strings.TrimSpace(fontDisallowedSet.ReplaceAllString(input, ""))
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

// Label trims and truncates a header label. Invalid UTF-8 and control
// characters other than tab and line breaks are removed. A nil input means the caller did
// not specify a label and gets fallback; a present but blank input is kept
// as the empty string so users can hide the header.
func Label(input *string, fallback string) string {
	if input == nil {
		return fallback
	}
	trimmed := strings.TrimSpace(strings.Map(xmlRune, strings.ToValidUTF8(*input, "")))
	if trimmed == "" {
		return ""
	}
	runes := []rune(trimmed)
	if len(runes) > core.MaxLabelLength {
		return string(runes[:core.MaxLabelLength])
	}
	return trimmed
}

// IntInRange parses the leading integer of input (so "12px" is 12) and
// returns it when it lies within [lo, hi]; otherwise fallback.
func IntInRange(input string, lo, hi, fallback int) int {
	s := strings.TrimLeftFunc(input, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < lo || n > hi {
		return fallback
	}
	return n
}

// Template returns the named layout, or boxed when the name is unknown.
func Template(input string) core.Template {
	t := core.Template(input)
	if t.Valid() {
		return t
	}
	return core.DefaultTemplate
}

// LabelStyle returns short only for the exact value "short".
func LabelStyle(input string) core.LabelStyle {
	if core.LabelStyle(input) == core.LabelStyleShort {
		return core.LabelStyleShort
	}
	return core.LabelStyleLong
}

// xmlRune drops runes that are not legal XML 1.0 characters.
func xmlRune(r rune) rune {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return r
	case r < 0x20, r == 0xFFFE, r == 0xFFFF:
		return -1
	}
	return r
}
