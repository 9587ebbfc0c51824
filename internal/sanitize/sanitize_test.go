package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"countdown/internal/core"
)

func strPtr(s string) *string { return &s }

func TestColor(t *testing.T) {
	const fb = "#000000"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"six digits without hash", "abc123", "#abc123"},
		{"three digits with hash keeps case", "#ABC", "#ABC"},
		{"surrounding whitespace", "  #facc15 ", "#facc15"},
		{"three digits without hash", "fff", "#fff"},
		{"not a color", "notacolor", fb},
		{"too short", "#12", fb},
		{"four digits", "#1234", fb},
		{"eight digits", "#11223344", fb},
		{"empty", "", fb},
		{"whitespace only", "   ", fb},
		{"named color", "red", fb},
		{"double hash", "##abc", fb},
		{"injection attempt", `#fff" onload="x`, fb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Color(tt.input, fb))
		})
	}
}

func TestFont(t *testing.T) {
	const fb = "sans-serif"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain stack", "Arial, Helvetica, sans-serif", "Arial, Helvetica, sans-serif"},
		{"quotes stripped", `"Open Sans", 'Outfit', serif`, "Open Sans, Outfit, serif"},
		{"injection stripped", `Arial"><script>alert(1)</script>`, "Arialscriptalert1script"},
		{"semicolons and parens stripped", "a;b(c)", "abc"},
		{"only disallowed", `"';()<>`, fb},
		{"empty", "", fb},
		{"whitespace trimmed", "  Inter  ", "Inter"},
		{"form feed stripped", "Arial\fBold", "ArialBold"},
		{"vertical tab stripped", "Arial\vBold", "ArialBold"},
		{"tab kept", "Arial,\tsans-serif", "Arial,\tsans-serif"},
		{"invalid utf8 stripped", "Inter\xff", "Inter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Font(tt.input, fb))
		})
	}
}

func TestLabel(t *testing.T) {
	t.Run("nil uses fallback", func(t *testing.T) {
		assert.Equal(t, "Default", Label(nil, "Default"))
	})

	t.Run("empty but present is preserved", func(t *testing.T) {
		assert.Equal(t, "", Label(strPtr(""), "Default"))
	})

	t.Run("whitespace only becomes empty", func(t *testing.T) {
		assert.Equal(t, "", Label(strPtr("   "), "Default"))
	})

	t.Run("trimmed", func(t *testing.T) {
		assert.Equal(t, "Sale", Label(strPtr("  Sale  "), "Default"))
	})

	t.Run("xml-illegal input removed", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
			want  string
		}{
			{"invalid utf8", "Sale\xff", "Sale"},
			{"lone invalid byte", "\xff", ""},
			{"control char", "Sale\x01 Now", "Sale Now"},
			{"nul", "a\x00b", "ab"},
			{"noncharacter", "a\uFFFEb", "ab"},
			{"tab and newline kept", "a\tb\nc", "a\tb\nc"},
			{"accents kept", "Soldes d\u00e9but", "Soldes d\u00e9but"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, Label(strPtr(tt.input), "Default"))
			})
		}
	})

	t.Run("truncated to 60 characters", func(t *testing.T) {
		got := Label(strPtr(strings.Repeat("x", 80)), "Default")
		assert.Len(t, got, core.MaxLabelLength)
	})

	t.Run("truncation counts characters not bytes", func(t *testing.T) {
		got := Label(strPtr(strings.Repeat("é", 70)), "Default")
		assert.Equal(t, core.MaxLabelLength, len([]rune(got)))
	})
}

func TestIntInRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"in range", "24", 24},
		{"lower bound", "0", 0},
		{"upper bound", "50", 50},
		{"above range", "51", 16},
		{"negative", "-1", 16},
		{"trailing garbage", "12px", 12},
		{"leading whitespace", "  7", 7},
		{"plus sign", "+9", 9},
		{"not a number", "abc", 16},
		{"empty", "", 16},
		{"sign only", "-", 16},
		{"decimal truncates", "3.9", 3},
		{"overflow", "99999999999999999999999", 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntInRange(tt.input, 0, 50, 16))
		})
	}
}

func TestTemplate(t *testing.T) {
	assert.Equal(t, core.TemplateBoxed, Template("boxed"))
	assert.Equal(t, core.TemplateMinimal, Template("minimal"))
	assert.Equal(t, core.TemplateMinimalNarrow, Template("minimal-narrow"))
	assert.Equal(t, core.TemplateBoxed, Template("unknown-name"))
	assert.Equal(t, core.TemplateBoxed, Template(""))
}

func TestLabelStyle(t *testing.T) {
	assert.Equal(t, core.LabelStyleShort, LabelStyle("short"))
	assert.Equal(t, core.LabelStyleLong, LabelStyle("long"))
	assert.Equal(t, core.LabelStyleLong, LabelStyle("SHORT"))
	assert.Equal(t, core.LabelStyleLong, LabelStyle(""))
}
