package render

import (
	"fmt"
	"strings"

	"countdown/internal/core"
)

// stackedLayout parameterizes the box-less layouts.
type stackedLayout struct {
	segmentWidth   float64
	separatorWidth float64
}

var (
	minimalLayout       = stackedLayout{segmentWidth: 110, separatorWidth: 30}
	minimalNarrowLayout = stackedLayout{segmentWidth: 75, separatorWidth: 20}
)

const (
	stackedHeightLabel = 180
	stackedHeightBare  = 140
	stackedTopLabel    = 60
	stackedTopBare     = 30
	stackedDigitsY     = 50
)

// renderStacked draws digits over unit labels with accent colons between
// segments and no surrounding boxes.
func renderStacked(l stackedLayout, segments []core.Segment, label string, colors core.Colors, font string, opts Options) string {
	n := float64(len(segments))
	padding := float64(opts.Padding)
	radius := float64(opts.Radius)

	width := padding*2 + n*l.segmentWidth
	if len(segments) > 1 {
		width += (n - 1) * l.separatorWidth
	}

	withLabel := hasLabel(label)
	height, top := float64(stackedHeightBare), float64(stackedTopBare)
	if withLabel {
		height, top = stackedHeightLabel, stackedTopLabel
	}

	fontAttr := esc(font)
	var b strings.Builder
	b.WriteString(svgHeader)
	fmt.Fprintf(&b, `<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`+"\n",
		num(width), num(height), num(width), num(height))
	fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s" rx="%s" ry="%s" />`+"\n",
		esc(colors.Background), num(radius), num(radius))

	if withLabel {
		fmt.Fprintf(&b, `  <text x="%s" y="35" text-anchor="middle" font-size="22" font-weight="600" fill="%s" font-family="%s">%s</text>`+"\n",
			num(width/2), esc(colors.Accent), fontAttr, esc(label))
	}

	cursor := padding
	for i, seg := range segments {
		fmt.Fprintf(&b, `  <g transform="translate(%s,%s)">`, num(cursor), num(top))
		fmt.Fprintf(&b, "\n    "+`<text x="%s" y="%d" text-anchor="middle" font-size="52" font-weight="%d" fill="%s" font-family="%s">%s</text>`,
			num(l.segmentWidth/2), stackedDigitsY, opts.FontWeight, esc(colors.Digits), fontAttr, esc(seg.Value))
		fmt.Fprintf(&b, "\n    "+`<text x="%s" y="85" text-anchor="middle" font-size="14" letter-spacing="0.1em" fill="%s" font-family="%s" opacity="0.8">%s</text>`,
			num(l.segmentWidth/2), esc(colors.Labels), fontAttr, esc(strings.ToUpper(seg.Label)))
		b.WriteString("\n  </g>\n")

		cursor += l.segmentWidth
		if i < len(segments)-1 {
			fmt.Fprintf(&b, `  <text x="%s" y="%s" text-anchor="middle" font-size="36" font-weight="300" fill="%s" font-family="%s" opacity="0.5">:</text>`+"\n",
				num(cursor+l.separatorWidth/2), num(top+stackedDigitsY), esc(colors.Accent), fontAttr)
			cursor += l.separatorWidth
		}
	}

	b.WriteString("</svg>")
	return b.String()
}
