package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
	"github.com/christopherklint97/vrcxpredict/internal/report"
)

// blankThreshold is the value at or below which a cell is left empty.
const blankThreshold = 0.0001

type rgba struct{ r, g, b, a uint8 }

var paletteAnchors = []struct {
	t float64
	c rgba
}{
	{0.00, rgba{0, 0, 0, 0}},
	{0.10, rgba{0, 160, 170, 180}},
	{0.35, rgba{0, 200, 120, 200}},
	{0.60, rgba{240, 210, 80, 210}},
	{0.80, rgba{240, 140, 60, 220}},
	{1.00, rgba{240, 60, 60, 230}},
}

// heatColor interpolates the palette at v. The second result is false for
// values that render as an empty cell.
func heatColor(v float64) (rgba, bool) {
	v = math.Min(1, math.Max(0, v))
	if v <= blankThreshold {
		return rgba{}, false
	}
	lo, hi := paletteAnchors[0], paletteAnchors[len(paletteAnchors)-1]
	for i := 0; i < len(paletteAnchors)-1; i++ {
		if v >= paletteAnchors[i].t && v <= paletteAnchors[i+1].t {
			lo, hi = paletteAnchors[i], paletteAnchors[i+1]
			break
		}
	}
	u := 0.0
	if span := hi.t - lo.t; span > 1e-9 {
		u = (v - lo.t) / span
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*u)
	}
	return rgba{
		r: lerp(lo.c.r, hi.c.r),
		g: lerp(lo.c.g, hi.c.g),
		b: lerp(lo.c.b, hi.c.b),
		a: lerp(lo.c.a, hi.c.a),
	}, true
}

// hex composites c over a black terminal background.
func (c rgba) hex() string {
	f := float64(c.a) / 255
	return fmt.Sprintf("#%02x%02x%02x",
		uint8(float64(c.r)*f), uint8(float64(c.g)*f), uint8(float64(c.b)*f))
}

// HourlyValues reduces g to 24 columns per day. Hours spanning several bins
// take their mean; with bins wider than an hour each hour takes the value of
// the bin containing it.
func HourlyValues(g *analysis.Grid) [][]float64 {
	bins := g.Bins()
	out := make([][]float64, analysis.DaysPerWeek)
	for d := range out {
		row := make([]float64, 24)
		for h := range row {
			if bins >= 24 {
				per := bins / 24
				sum := 0.0
				for k := 0; k < per; k++ {
					sum += g.At(d, h*per+k)
				}
				row[h] = sum / float64(per)
			} else {
				row[h] = g.At(d, h*bins/24)
			}
		}
		out[d] = row
	}
	return out
}

// HeatmapOptions controls RenderHeatmap.
type HeatmapOptions struct {
	Title  string
	Hourly bool
	// BinMinutes labels columns in per-bin mode.
	BinMinutes int
}

// RenderHeatmap draws a 7-row heatmap of g, Monday first.
func RenderHeatmap(g *analysis.Grid, opts HeatmapOptions) string {
	var rows [][]float64
	var headers []string
	if opts.Hourly || opts.BinMinutes <= 0 {
		rows = HourlyValues(g)
		for h := 0; h < 24; h++ {
			headers = append(headers, fmt.Sprintf("%02d", h))
		}
	} else {
		rows = g.Rows()
		for c := 0; c < g.Bins(); c++ {
			m := c * opts.BinMinutes
			if m%60 == 0 {
				headers = append(headers, fmt.Sprintf("%02d", m/60))
			} else {
				headers = append(headers, fmt.Sprintf("%02d", m%60))
			}
		}
	}

	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(titleStyle.Render(opts.Title))
		b.WriteString("\n")
	}

	b.WriteString("    ")
	for _, h := range headers {
		b.WriteString(dimStyle.Render(h))
	}
	b.WriteString("\n")

	for d, row := range rows {
		b.WriteString(labelStyle.Render(report.DayNames[d]))
		b.WriteString(" ")
		for _, v := range row {
			b.WriteString(heatCell(v))
		}
		b.WriteString("\n")
	}

	b.WriteString(heatLegend())
	return b.String()
}

func heatCell(v float64) string {
	c, ok := heatColor(v)
	if !ok {
		return "  "
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(c.hex())).Render("  ")
}

func heatLegend() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("    0 "))
	for _, v := range []float64{0.05, 0.1, 0.2, 0.35, 0.5, 0.6, 0.7, 0.8, 0.9, 1} {
		b.WriteString(heatCell(v))
	}
	b.WriteString(dimStyle.Render(" 1"))
	b.WriteString("\n")
	return b.String()
}
