package svg

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"

	svgo "github.com/ajstarks/svgo"
)

var errViewport = errors.New("svg: viewport too small")

// frame is the plotting area shared by every chart type.
type frame struct {
	buf     bytes.Buffer
	canvas  *svgo.SVG
	width   int
	height  int
	padding int
	minVal  float64
	maxVal  float64
}

func newFrame(width, height, padding int, title, desc string) (*frame, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	if width-2*padding <= 0 || height-2*padding <= 0 {
		return nil, errViewport
	}
	f := &frame{width: width, height: height, padding: padding}
	f.canvas = svgo.New(&f.buf)
	f.canvas.Start(width, height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height),
		`role="img"`,
		fmt.Sprintf(`aria-label="%s"`, html.EscapeString(title)),
	)
	f.canvas.Title(title)
	f.canvas.Desc(desc)
	return f, nil
}

func (f *frame) chartWidth() int  { return f.width - 2*f.padding }
func (f *frame) chartHeight() int { return f.height - 2*f.padding }

// scale fixes the value range. Zero is always inside the range.
func (f *frame) scale(values ...[]float64) {
	first := true
	for _, series := range values {
		for _, v := range series {
			if first {
				f.minVal, f.maxVal = v, v
				first = false
				continue
			}
			f.minVal = math.Min(f.minVal, v)
			f.maxVal = math.Max(f.maxVal, v)
		}
	}
	if f.minVal > 0 {
		f.minVal = 0
	}
	if f.maxVal < 0 {
		f.maxVal = 0
	}
	if almostEqual(f.maxVal, f.minVal) {
		f.maxVal = f.minVal + 1
	}
}

func (f *frame) y(v float64) int {
	ratio := (v - f.minVal) / (f.maxVal - f.minVal)
	return f.padding + f.chartHeight() - int(math.Round(ratio*float64(f.chartHeight())))
}

func (f *frame) grid(ticks int, axisColor, gridColor, suffix string) {
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	for i := 0; i <= ticks; i++ {
		v := f.minVal + (f.maxVal-f.minVal)*float64(i)/float64(ticks)
		y := f.y(v)
		if gridColor != "" {
			f.canvas.Line(f.padding, y, f.padding+f.chartWidth(), y, "stroke:"+gridColor+";stroke-width:0.5;stroke-dasharray:2,4")
		}
		f.canvas.Text(f.padding-6, y+4, formatTick(v)+suffix, "fill:"+axisColor+";font-size:10px;text-anchor:end")
	}
	f.canvas.Line(f.padding, f.padding, f.padding, f.padding+f.chartHeight(), "stroke:"+axisColor)
	zero := f.y(0)
	f.canvas.Line(f.padding, zero, f.padding+f.chartWidth(), zero, "stroke:"+axisColor)
}

func (f *frame) label(x int, text, color string) {
	f.canvas.Text(x, f.padding+f.chartHeight()+14, text, "fill:"+color+";font-size:10px;text-anchor:middle")
}

// html closes the document and drops the XML prolog so the markup can be
// inlined into a page.
func (f *frame) html() template.HTML {
	f.canvas.End()
	out := f.buf.String()
	if i := strings.Index(out, "<svg"); i > 0 {
		out = out[i:]
	}
	return template.HTML(out)
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.1f", v)
	}
}
