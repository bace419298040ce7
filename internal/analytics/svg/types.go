package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     int
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title        string
	Description  string
	SeriesALabel string
	SeriesBLabel string
	ColorA       string
	ColorB       string
	AxisColor    string
	GridColor    string
	Padding      int
	TickCount    int
}

// ColumnOpts customises the signed column renderer. Values at or above zero
// use PositiveColor.
type ColumnOpts struct {
	Title         string
	Description   string
	PositiveColor string
	NegativeColor string
	AxisColor     string
	Padding       int
	Suffix        string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 36
	DefaultTicks   = 5
)
