package svg

import (
	"errors"
	"html/template"
)

// Columns renders signed values as columns above or below a zero line,
// coloured by sign.
func Columns(width, height int, values []float64, labels []string, opts ColumnOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", errors.New("svg: values required")
	}
	if len(values) != len(labels) {
		return "", errors.New("svg: labels length must match values")
	}
	f, err := newFrame(width, height, opts.Padding, fallback(opts.Title, "Variance chart"), fallback(opts.Description, "Variance against average"))
	if err != nil {
		return "", err
	}
	positive := fallback(opts.PositiveColor, "#16a34a")
	negative := fallback(opts.NegativeColor, "#dc2626")
	axisColor := fallback(opts.AxisColor, "#475569")

	f.scale(values)
	f.grid(DefaultTicks, axisColor, "", opts.Suffix)

	slot := f.chartWidth() / len(values)
	colWidth := slot * 6 / 10
	if colWidth < 1 {
		colWidth = 1
	}
	zero := f.y(0)
	for i, v := range values {
		color := positive
		if v < 0 {
			color = negative
		}
		center := f.padding + i*slot + slot/2
		f.bar(center-colWidth/2, colWidth, zero, v, color)
		f.label(center, labels[i], axisColor)
	}
	return f.html(), nil
}
