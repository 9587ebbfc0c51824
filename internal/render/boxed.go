package render

import (
	"fmt"
	"math"
	"strings"

	"countdown/internal/core"
)

const (
	boxWidth          = 150
	boxHeight         = 110
	boxGap            = 18
	boxedHeightLabel  = 220
	boxedHeightBare   = 160
	boxedTopLabel     = 75
	boxedTopBare      = 20
	boxedMaxOuterRad  = 28
	boxedRuleHalfSpan = 80
)

// renderBoxed draws one rounded box per segment with the digits above an
// uppercase unit label, plus an optional header and accent rule.
func renderBoxed(segments []core.Segment, label string, colors core.Colors, font string, opts Options) string {
	n := float64(len(segments))
	padding := float64(opts.Padding)
	radius := float64(opts.Radius)
	outerRadius := math.Min(radius*1.75, boxedMaxOuterRad)

	// Padding on both ends, a gap between boxes and one trailing gap.
	width := padding*2 + n*(boxWidth+boxGap) - boxGap + boxGap

	withLabel := hasLabel(label)
	height, top := float64(boxedHeightBare), float64(boxedTopBare)
	if withLabel {
		height, top = boxedHeightLabel, boxedTopLabel
	}

	fontAttr := esc(font)
	var b strings.Builder
	b.WriteString(svgHeader)
	fmt.Fprintf(&b, `<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`+"\n",
		num(width), num(height), num(width), num(height))
	b.WriteString("  <defs>\n")
	b.WriteString(`    <filter id="shadow" x="-20%" y="-20%" width="140%" height="140%">` + "\n")
	fmt.Fprintf(&b, `      <feDropShadow dx="0" dy="12" stdDeviation="12" flood-color="%s" flood-opacity="0.25" />`+"\n", esc(colors.Box))
	b.WriteString("    </filter>\n")
	b.WriteString("  </defs>\n")
	fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s" rx="%s" ry="%s" />`+"\n",
		esc(colors.Background), num(outerRadius), num(outerRadius))

	if withLabel {
		center := width / 2
		fmt.Fprintf(&b, `  <text x="%s" y="48" text-anchor="middle" font-size="26" font-weight="600" fill="%s" font-family="%s">%s</text>`+"\n",
			num(center), esc(colors.Accent), fontAttr, esc(label))
		fmt.Fprintf(&b, `  <line x1="%s" x2="%s" y1="60" y2="60" stroke="%s" stroke-width="2" stroke-linecap="round" opacity="0.4" />`+"\n",
			num(center-boxedRuleHalfSpan), num(center+boxedRuleHalfSpan), esc(colors.Accent))
	}

	b.WriteString(`  <g filter="url(#shadow)">`)
	cursor := padding
	for _, seg := range segments {
		fmt.Fprintf(&b, "\n    "+`<g transform="translate(%s,%s)">`, num(cursor), num(top))
		fmt.Fprintf(&b, "\n      "+`<rect rx="%s" ry="%s" width="%d" height="%d" fill="%s"></rect>`,
			num(radius), num(radius), boxWidth, boxHeight, esc(colors.Box))
		fmt.Fprintf(&b, "\n      "+`<text x="%s" y="60" text-anchor="middle" font-size="42" font-weight="%d" fill="%s" font-family="%s">%s</text>`,
			num(boxWidth/2.0), opts.FontWeight, esc(colors.Digits), fontAttr, esc(seg.Value))
		fmt.Fprintf(&b, "\n      "+`<text x="%s" y="95" text-anchor="middle" font-size="16" letter-spacing="0.2em" fill="%s" font-family="%s" opacity="0.9">%s</text>`,
			num(boxWidth/2.0), esc(colors.Labels), fontAttr, esc(strings.ToUpper(seg.Label)))
		b.WriteString("\n    </g>")
		cursor += boxWidth + boxGap
	}
	b.WriteString("</g>\n")
	b.WriteString("</svg>")
	return b.String()
}
