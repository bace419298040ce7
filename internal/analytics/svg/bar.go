package svg

import (
	"errors"
	"html/template"
)

// Bars renders a grouped bar chart comparing up to two series.
func Bars(width, height int, seriesA, seriesB []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(seriesA) == 0 && len(seriesB) == 0 {
		return "", errors.New("svg: at least one series required")
	}
	if len(labels) == 0 {
		return "", errors.New("svg: labels required")
	}
	if len(seriesA) > 0 && len(seriesA) != len(labels) {
		return "", errors.New("svg: seriesA length must match labels")
	}
	if len(seriesB) > 0 && len(seriesB) != len(labels) {
		return "", errors.New("svg: seriesB length must match labels")
	}
	f, err := newFrame(width, height, opts.Padding, fallback(opts.Title, "Bar chart"), fallback(opts.Description, "Comparison data"))
	if err != nil {
		return "", err
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")
	colorA := fallback(opts.ColorA, "#0ea5e9")
	colorB := fallback(opts.ColorB, "#f97316")

	f.scale(seriesA, seriesB)
	f.grid(opts.TickCount, axisColor, gridColor, "")

	groups := len(labels)
	perGroup := 0
	if len(seriesA) > 0 {
		perGroup++
	}
	if len(seriesB) > 0 {
		perGroup++
	}
	groupWidth := f.chartWidth() / groups
	barWidth := groupWidth * 7 / 10 / perGroup
	if barWidth < 1 {
		barWidth = 1
	}
	zero := f.y(0)
	for i, label := range labels {
		left := f.padding + i*groupWidth + (groupWidth-barWidth*perGroup)/2
		slot := 0
		if len(seriesA) > 0 {
			f.bar(left, barWidth, zero, seriesA[i], colorA)
			slot++
		}
		if len(seriesB) > 0 {
			f.bar(left+slot*barWidth, barWidth, zero, seriesB[i], colorB)
		}
		f.label(f.padding+i*groupWidth+groupWidth/2, label, axisColor)
	}

	legendY := f.padding / 2
	if len(seriesA) > 0 && opts.SeriesALabel != "" {
		f.canvas.Rect(f.padding, legendY-8, 10, 10, "fill:"+colorA)
		f.canvas.Text(f.padding+14, legendY+1, opts.SeriesALabel, "fill:"+axisColor+";font-size:11px")
	}
	if len(seriesB) > 0 && opts.SeriesBLabel != "" {
		offset := f.padding + 120
		f.canvas.Rect(offset, legendY-8, 10, 10, "fill:"+colorB)
		f.canvas.Text(offset+14, legendY+1, opts.SeriesBLabel, "fill:"+axisColor+";font-size:11px")
	}
	return f.html(), nil
}

// bar draws one rectangle from the zero line to v.
func (f *frame) bar(left, width, zero int, v float64, color string) {
	top := f.y(v)
	h := zero - top
	if h < 0 {
		top, h = zero, -h
	}
	f.canvas.Rect(left, top, width, h, "fill:"+color)
}
