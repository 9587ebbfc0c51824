// Package builder serves the countdown configuration page: a form that
// produces an <img> embed snippet and a live preview URL.
package builder

import (
	"bytes"
	"embed"
	"html"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"countdown/internal/core"
	"countdown/internal/countdown"
	"countdown/internal/timer"
)

//go:embed templates/*.html static/favicon.svg
var content embed.FS

// Form parameters read in addition to the image parameters.
const (
	ParamDate     = "date"
	ParamTimezone = "timezone"
)

// BasePathHeader lets a reverse proxy mounting the service under a prefix
// tell the page how to build absolute image URLs.
const BasePathHeader = "X-Base-Path"

// Form is a resolved configuration page request.
type Form struct {
	Style    core.TimerStyle
	Location *time.Location
	Target   time.Time
}

// ParseForm resolves the page query. The date is wall-clock time in the
// selected timezone; a missing or malformed date defaults to two days out.
func ParseForm(q url.Values, now time.Time) Form {
	loc := countdown.ResolveTimezone(q.Get(ParamTimezone))
	return Form{
		Style:    timer.ParseParams(q).Style,
		Location: loc,
		Target:   countdown.ResolveFormTarget(q.Get(ParamDate), loc, now),
	}
}

// ImageURL builds the absolute URL of a timer image. ext is "png" or "svg".
func ImageURL(baseURL, ext string, f Form) string {
	return baseURL + "/timer." + ext + "?" + timer.Encode(f.Style, f.Target).Encode()
}

// EscapeURL escapes u for an HTML attribute. Script-capable schemes yield "".
func EscapeURL(u string) string {
	trimmed := strings.TrimSpace(u)
	lower := strings.ToLower(trimmed)
	for _, scheme := range []string{"javascript:", "data:", "vbscript:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	return html.EscapeString(trimmed)
}

// Snippet returns the email-safe <img> tag for imageURL.
func Snippet(imageURL, alt string) string {
	return `<img src="` + EscapeURL(imageURL) + `" alt="` + html.EscapeString(alt) +
		`" width="600" style="display:block;max-width:100%;height:auto;border:0;">`
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Label      string
	Colors     core.Colors
	Radius     int
	Padding    int
	FormDate   string
	Timezones  []option
	Templates  []option
	LabelStyle []option
	Fonts      []option
	Weights    []option
	Snippet    string
	PreviewURL string
	PNGURL     string
}

var fontChoices = []struct{ value, label, match string }{
	{"Arial, Helvetica, sans-serif", "Arial", "Arial"},
	{"'Helvetica Neue', Helvetica, sans-serif", "Helvetica Neue", "Helvetica Neue"},
	{"Georgia, 'Times New Roman', serif", "Georgia", "Georgia"},
	{"'Trebuchet MS', sans-serif", "Trebuchet MS", "Trebuchet"},
	{"Verdana, Geneva, sans-serif", "Verdana", "Verdana"},
	{"'Courier New', monospace", "Courier New", "Courier"},
	{"Impact, sans-serif", "Impact", "Impact"},
	{"'Lucida Console', Monaco, monospace", "Lucida Console", "Lucida"},
	{"Tahoma, Geneva, sans-serif", "Tahoma", "Tahoma"},
	{core.DefaultFont, "TikTok Sans", "TikTok"},
	{"'Inter', sans-serif", "Inter", "Inter"},
	{"'Arimo', sans-serif", "Arimo", "Arimo"},
}

var weightNames = map[int]string{
	100: "Thin", 200: "Extra Light", 300: "Light", 400: "Regular", 500: "Medium",
	600: "Semi-Bold", 700: "Bold", 800: "Extra Bold", 900: "Black",
}

var templateNames = map[core.Template]string{
	core.TemplateBoxed:         "Boxed",
	core.TemplateMinimal:       "Minimal",
	core.TemplateMinimalNarrow: "Compact",
}

func newPageData(f Form, baseURL string, now time.Time) pageData {
	s := f.Style
	pngURL := ImageURL(baseURL, "png", f)

	d := pageData{
		Label:      s.Label,
		Colors:     s.Colors,
		Radius:     s.Radius,
		Padding:    s.Padding,
		FormDate:   countdown.FormatDateTimeLocal(f.Target, f.Location),
		Snippet:    Snippet(pngURL, s.Label),
		PreviewURL: ImageURL(baseURL, "svg", f) + "&_=" + strconv.FormatInt(now.UnixMilli(), 10),
		PNGURL:     pngURL,
		LabelStyle: []option{
			{Value: string(core.LabelStyleLong), Label: "Long (Days, Hours...)", Selected: s.LabelStyle == core.LabelStyleLong},
			{Value: string(core.LabelStyleShort), Label: "Short (D, H, M, S)", Selected: s.LabelStyle == core.LabelStyleShort},
		},
	}

	tz := f.Location.String()
	for _, name := range countdown.Timezones() {
		d.Timezones = append(d.Timezones, option{Value: name, Label: name, Selected: name == tz})
	}
	for _, t := range core.Templates {
		d.Templates = append(d.Templates, option{Value: string(t), Label: templateNames[t], Selected: t == s.Template})
	}
	fontSelected := false
	for _, fc := range fontChoices {
		sel := !fontSelected && strings.Contains(s.Font, fc.match)
		fontSelected = fontSelected || sel
		d.Fonts = append(d.Fonts, option{Value: fc.value, Label: fc.label, Selected: sel})
	}
	for w := core.MinFontWeight; w <= core.MaxFontWeight; w += 100 {
		d.Weights = append(d.Weights, option{
			Value:    strconv.Itoa(w),
			Label:    weightNames[w] + " (" + strconv.Itoa(w) + ")",
			Selected: w == s.FontWeight,
		})
	}
	return d
}

// Handler serves the configuration page and favicon.
type Handler struct {
	indexTmpl *template.Template
	favicon   []byte
	basePath  string
	now       func() time.Time
}

// New creates a page handler. basePath is used when a request carries no
// X-Base-Path header; now may be nil.
func New(basePath string, now func() time.Time) (*Handler, error) {
	tmpl, err := template.ParseFS(content, "templates/index.html")
	if err != nil {
		return nil, err
	}
	favicon, err := content.ReadFile("static/favicon.svg")
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{
		indexTmpl: tmpl,
		favicon:   favicon,
		basePath:  strings.TrimRight(basePath, "/"),
		now:       now,
	}, nil
}

// Index serves GET / with the configuration form.
func (h *Handler) Index(c echo.Context) error {
	now := h.now()
	f := ParseForm(c.QueryParams(), now)

	var buf bytes.Buffer
	if err := h.indexTmpl.Execute(&buf, newPageData(f, h.baseURL(c), now)); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Favicon serves GET /favicon.svg.
func (h *Handler) Favicon(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/svg+xml", h.favicon)
}

func (h *Handler) baseURL(c echo.Context) string {
	basePath := strings.TrimRight(c.Request().Header.Get(BasePathHeader), "/")
	if basePath == "" {
		basePath = h.basePath
	}
	return c.Scheme() + "://" + c.Request().Host + basePath
}
