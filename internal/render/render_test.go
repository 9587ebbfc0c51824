package render

import (
	"encoding/xml"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countdown/internal/core"
)

var testSegments = []core.Segment{
	{Label: "Days", Value: "01"},
	{Label: "Hours", Value: "02"},
	{Label: "Minutes", Value: "03"},
	{Label: "Seconds", Value: "04"},
}

var defaultOpts = Options{Radius: 16, FontWeight: 700, Padding: 20}

// requireWellFormed decodes every token so malformed markup fails the test.
func requireWellFormed(t *testing.T, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err, "svg is not well-formed:\n%s", svg)
	}
}

var sizePattern = regexp.MustCompile(`<svg width="([0-9.]+)" height="([0-9.]+)"`)

func canvasSize(t *testing.T, svg string) (string, string) {
	t.Helper()
	m := sizePattern.FindStringSubmatch(svg)
	require.Len(t, m, 3, "no svg size in output")
	return m[1], m[2]
}

func TestRender_CanvasSize(t *testing.T) {
	tests := []struct {
		name       string
		template   core.Template
		label      string
		opts       Options
		wantWidth  string
		wantHeight string
	}{
		{"boxed with label", core.TemplateBoxed, "Sale", defaultOpts, "712", "220"},
		{"boxed without label", core.TemplateBoxed, "", defaultOpts, "712", "160"},
		{"boxed padding 0", core.TemplateBoxed, "Sale", Options{Radius: 16, FontWeight: 700, Padding: 0}, "672", "220"},
		{"minimal with label", core.TemplateMinimal, "Sale", defaultOpts, "570", "180"},
		{"minimal without label", core.TemplateMinimal, "  ", defaultOpts, "570", "140"},
		{"minimal-narrow with label", core.TemplateMinimalNarrow, "Sale", defaultOpts, "400", "180"},
		{"minimal-narrow padding 150", core.TemplateMinimalNarrow, "", Options{Padding: 150, FontWeight: 700}, "660", "140"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg := Render(tt.template, testSegments, tt.label, core.DefaultColors, core.DefaultFont, tt.opts)
			requireWellFormed(t, svg)

			w, h := canvasSize(t, svg)
			assert.Equal(t, tt.wantWidth, w)
			assert.Equal(t, tt.wantHeight, h)
		})
	}
}

func TestRender_UnknownTemplateFallsBackToBoxed(t *testing.T) {
	boxed := Render(core.TemplateBoxed, testSegments, "Sale", core.DefaultColors, core.DefaultFont, defaultOpts)
	unknown := Render("unknown-name", testSegments, "Sale", core.DefaultColors, core.DefaultFont, defaultOpts)
	assert.Equal(t, boxed, unknown)
}

func TestRender_EscapesLabel(t *testing.T) {
	label := `<script>alert("x")</script> & 'more'`
	for _, tmpl := range core.Templates {
		t.Run(string(tmpl), func(t *testing.T) {
			svg := Render(tmpl, testSegments, label, core.DefaultColors, core.DefaultFont, defaultOpts)
			requireWellFormed(t, svg)
			assert.NotContains(t, svg, "<script>")
			assert.Contains(t, svg, "&lt;script&gt;")
			assert.Contains(t, svg, "&amp;")
		})
	}
}

func TestRender_DropsXMLIllegalRunes(t *testing.T) {
	label := "Sale\x01\xff\x0cNow"
	font := "Arial\x0cBold"
	for _, tmpl := range core.Templates {
		t.Run(string(tmpl), func(t *testing.T) {
			svg := Render(tmpl, testSegments, label, core.DefaultColors, font, defaultOpts)
			requireWellFormed(t, svg)
			assert.Contains(t, svg, ">SaleNow</text>")
			assert.Contains(t, svg, `font-family="ArialBold"`)
		})
	}
}

func TestEsc(t *testing.T) {
	assert.Equal(t, "a&amp;b&lt;c&gt;&#34;&#39;", esc(`a&b<c>"'`))
	assert.Equal(t, "tab\there", esc("tab\there"))
	assert.Equal(t, "ab", esc("a\x1fb"))
	assert.Equal(t, "\u00e9", esc("\u00e9"))
}

func TestRender_HeaderSuppressedWhenBlank(t *testing.T) {
	for _, tmpl := range core.Templates {
		t.Run(string(tmpl), func(t *testing.T) {
			with := Render(tmpl, testSegments, "Offer Ends In", core.DefaultColors, core.DefaultFont, defaultOpts)
			without := Render(tmpl, testSegments, " \t", core.DefaultColors, core.DefaultFont, defaultOpts)

			assert.Contains(t, with, ">Offer Ends In</text>")
			assert.NotContains(t, without, `font-weight="600"`)
			assert.NotContains(t, without, "<line")
		})
	}
}

func TestRender_Boxed(t *testing.T) {
	svg := Render(core.TemplateBoxed, testSegments, "Sale", core.DefaultColors, core.DefaultFont, defaultOpts)

	t.Run("one box per segment", func(t *testing.T) {
		assert.Equal(t, 4, strings.Count(svg, `<rect rx="16" ry="16" width="150" height="110"`))
	})

	t.Run("boxes laid out left to right", func(t *testing.T) {
		for _, x := range []string{"20", "188", "356", "524"} {
			assert.Contains(t, svg, `<g transform="translate(`+x+`,75)">`)
		}
	})

	t.Run("outer radius is capped", func(t *testing.T) {
		assert.Contains(t, svg, `rx="28" ry="28"`)

		small := Render(core.TemplateBoxed, testSegments, "Sale", core.DefaultColors, core.DefaultFont, Options{Radius: 5, FontWeight: 700, Padding: 20})
		assert.Contains(t, small, `rx="8.75" ry="8.75"`)
	})

	t.Run("shadow filter applied to box group", func(t *testing.T) {
		assert.Contains(t, svg, `<feDropShadow`)
		assert.Contains(t, svg, `<g filter="url(#shadow)">`)
	})

	t.Run("accent rule under header", func(t *testing.T) {
		assert.Contains(t, svg, `<line x1="276" x2="436" y1="60" y2="60" stroke="#facc15"`)
	})

	t.Run("uppercase unit labels", func(t *testing.T) {
		for _, l := range []string{">DAYS<", ">HOURS<", ">MINUTES<", ">SECONDS<"} {
			assert.Contains(t, svg, l)
		}
	})

	t.Run("digits use font weight", func(t *testing.T) {
		heavy := Render(core.TemplateBoxed, testSegments, "Sale", core.DefaultColors, core.DefaultFont, Options{Radius: 16, FontWeight: 900, Padding: 20})
		assert.Equal(t, 4, strings.Count(heavy, `font-size="42" font-weight="900"`))
	})
}

func TestRender_Minimal(t *testing.T) {
	svg := Render(core.TemplateMinimal, testSegments, "Sale", core.DefaultColors, core.DefaultFont, Options{Radius: 24, FontWeight: 300, Padding: 30})
	requireWellFormed(t, svg)

	assert.Equal(t, 3, strings.Count(svg, `>:</text>`), "separators between segments only")
	assert.Contains(t, svg, `<rect width="100%" height="100%" fill="#1c1917" rx="24" ry="24" />`)
	assert.Equal(t, 4, strings.Count(svg, `font-size="52" font-weight="300"`))
	assert.NotContains(t, svg, "<line")
	assert.NotContains(t, svg, "filter")

	// First separator sits after the first segment: 30 + 110 + 15.
	assert.Contains(t, svg, `<text x="155" y="110"`)
}

func TestRender_MinimalNarrow(t *testing.T) {
	svg := Render(core.TemplateMinimalNarrow, testSegments, "", core.DefaultColors, core.DefaultFont, defaultOpts)
	requireWellFormed(t, svg)

	assert.Contains(t, svg, `<g transform="translate(20,30)">`)
	assert.Contains(t, svg, `<g transform="translate(115,30)">`)
	assert.Contains(t, svg, `<text x="37.5" y="50"`)
	assert.Contains(t, svg, `<text x="105" y="80"`)
}

func TestRender_WideDays(t *testing.T) {
	segments := []core.Segment{{Label: "D", Value: "123"}, {Label: "H", Value: "00"}, {Label: "M", Value: "00"}, {Label: "S", Value: "00"}}
	svg := Render(core.TemplateMinimal, segments, "", core.DefaultColors, core.DefaultFont, defaultOpts)
	assert.Contains(t, svg, ">123</text>")
}

func TestRenderStyle(t *testing.T) {
	style := core.DefaultStyle()
	style.Template = core.TemplateMinimal
	style.Label = "Sale"

	assert.Equal(t,
		Render(core.TemplateMinimal, testSegments, "Sale", core.DefaultColors, core.DefaultFont, defaultOpts),
		RenderStyle(style, testSegments))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "75", num(75))
	assert.Equal(t, "37.5", num(37.5))
	assert.Equal(t, "8.75", num(8.75))
	assert.Equal(t, "-60", num(-60))
}
