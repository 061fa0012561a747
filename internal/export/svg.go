package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/uqsim/internal/analysis"
)

type SVGOptions struct {
	Width      int
	Height     int
	BandColor  string
	MeanColor  string
	Background string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      800,
		Height:     400,
		BandColor:  "#00ccff",
		MeanColor:  "#ffffff",
		Background: "#0a0a0a",
	}
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func bandBounds(b *analysis.Band) bounds {
	bb := bounds{
		minX: b.Times[0], maxX: b.Times[len(b.Times)-1],
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
	for i := range b.Times {
		for _, v := range []float64{b.Lower[i], b.Upper[i], b.Mean[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			bb.minY = math.Min(bb.minY, v)
			bb.maxY = math.Max(bb.maxY, v)
		}
	}
	if math.IsInf(bb.minY, 0) {
		bb.minY, bb.maxY = 0, 1
	}

	rangeX := bb.maxX - bb.minX
	rangeY := bb.maxY - bb.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	bb.minY -= rangeY * 0.1
	bb.maxY += rangeY * 0.1
	bb.maxX = bb.minX + rangeX
	return bb
}

// BandToSVG draws the quantile band of one component as a filled polygon
// with the mean on top. Non-finite points are skipped.
func BandToSVG(b *analysis.Band, title string, opts SVGOptions) string {
	if b == nil || len(b.Times) < 2 {
		return ""
	}
	bb := bandBounds(b)
	w, h := opts.Width, opts.Height

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, opts.Background))

	if title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="10" y="20" fill="%s" font-family="monospace" font-size="14">%s</text>
`, opts.MeanColor, escape(title)))
	}

	var poly []string
	for i := range b.Times {
		if finite(b.Upper[i]) {
			x, y := bb.project(b.Times[i], b.Upper[i], w, h)
			poly = append(poly, fmt.Sprintf("%.1f,%.1f", x, y))
		}
	}
	for i := len(b.Times) - 1; i >= 0; i-- {
		if finite(b.Lower[i]) {
			x, y := bb.project(b.Times[i], b.Lower[i], w, h)
			poly = append(poly, fmt.Sprintf("%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(fmt.Sprintf(`<polygon fill="%s" fill-opacity="0.3" stroke="none" points="%s"/>
`, opts.BandColor, strings.Join(poly, " ")))

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, opts.MeanColor))
	cmd := "M"
	for i := range b.Times {
		if !finite(b.Mean[i]) {
			cmd = "M"
			continue
		}
		x, y := bb.project(b.Times[i], b.Mean[i], w, h)
		sb.WriteString(fmt.Sprintf("%s%.1f,%.1f ", cmd, x, y))
		cmd = "L"
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return escaper.Replace(s)
}
