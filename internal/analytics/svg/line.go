package svg

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Line renders a line chart for series with one label per point.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", errors.New("svg: series required")
	}
	if len(series) != len(labels) {
		return "", errors.New("svg: labels length must match series")
	}
	f, err := newFrame(width, height, opts.Padding, fallback(opts.Title, "Line chart"), fallback(opts.Description, "Trend data"))
	if err != nil {
		return "", err
	}
	strokeColor := fallback(opts.StrokeColor, "#2563eb")
	fillColor := fallback(opts.FillColor, "rgba(37,99,235,0.12)")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")

	f.scale(series)
	f.grid(opts.TickCount, axisColor, gridColor, "")

	xs := make([]int, len(series))
	ys := make([]int, len(series))
	for i, v := range series {
		xs[i] = f.x(i, len(series))
		ys[i] = f.y(v)
	}

	var path strings.Builder
	for i := range xs {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%d %d ", cmd, xs[i], ys[i])
	}
	base := f.y(0)
	area := fmt.Sprintf("%sL%d %d L%d %d Z", path.String(), xs[len(xs)-1], base, xs[0], base)
	f.canvas.Path(area, "fill:"+fillColor+";stroke:none")
	f.canvas.Path(strings.TrimSpace(path.String()), "fill:none;stroke:"+strokeColor+";stroke-width:2;stroke-linejoin:round")

	for i := range xs {
		if opts.ShowDots {
			f.canvas.Circle(xs[i], ys[i], 3, "fill:"+strokeColor)
		}
		f.label(xs[i], labels[i], axisColor)
	}
	return f.html(), nil
}

// x spreads n points evenly across the chart, centring a single point.
func (f *frame) x(i, n int) int {
	if n <= 1 {
		return f.padding + f.chartWidth()/2
	}
	return f.padding + i*f.chartWidth()/(n-1)
}
