package ui

import (
	"html/template"
	"time"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/svg"
	"github.com/durabrake/findash/internal/period"
)

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// ColumnRenderer abstracts signed column rendering for variance charts.
type ColumnRenderer interface {
	Columns(width, height int, values []float64, labels []string, opts svg.ColumnOpts) (template.HTML, error)
}

// Renderer draws every chart type with the svg package.
type Renderer struct{}

// Line implements LineRenderer.
func (Renderer) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

// Bars implements BarRenderer.
func (Renderer) Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, seriesA, seriesB, labels, opts)
}

// Columns implements ColumnRenderer.
func (Renderer) Columns(width, height int, values []float64, labels []string, opts svg.ColumnOpts) (template.HTML, error) {
	return svg.Columns(width, height, values, labels, opts)
}

// Charts bundles the renderers used by the view builders.
type Charts struct {
	Line   LineRenderer
	Bar    BarRenderer
	Column ColumnRenderer
}

// DefaultCharts renders with the svg package.
func DefaultCharts() Charts {
	return Charts{Line: Renderer{}, Bar: Renderer{}, Column: Renderer{}}
}

// TabLink is one entry of the tab bar.
type TabLink struct {
	Key    string
	Label  string
	Href   string
	Active bool
}

// MetricCard is a headline figure with its L3M variance.
type MetricCard struct {
	Label         string
	Value         string
	Average       string
	Variance      string
	VarianceClass string
}

// RatioCard is a classified working capital ratio.
type RatioCard struct {
	Label       string
	Value       string
	StatusLabel string
	StatusClass string
}

// SummaryView is the summary tab.
type SummaryView struct {
	Report     analytics.Summary
	Cards      []MetricCard
	YTD        []MetricCard
	QTD        []MetricCard
	RevenueSVG template.HTML
	RollingSVG template.HTML
}

// ProductView is one product line on the products tab.
type ProductView struct {
	Report     analytics.ProductReport
	Cards      []MetricCard
	Share      string
	RevenueSVG template.HTML
}

// NWCView is the working capital tab.
type NWCView struct {
	Report    analytics.WorkingCapitalReport
	Ratios    []RatioCard
	NWCPctSVG template.HTML
	CCCSVG    template.HTML
}

// CustomersView is the customer tab.
type CustomersView struct {
	Report     analytics.CustomerReport
	SegmentSVG template.HTML
}

// BacklogView is the backlog tab.
type BacklogView struct {
	Report  analytics.BacklogReport
	AgeSVG  template.HTML
	ShipSVG template.HTML
}

// HistoricalView is the historicals tab.
type HistoricalView struct {
	Report     analytics.Historical
	Cards      []MetricCard
	RevenueSVG template.HTML
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Period      period.Key
	Tab         string
	Tabs        []TabLink
	Periods     []analytics.PeriodCard
	Summary     *SummaryView
	Products    []ProductView
	NWC         *NWCView
	Customers   *CustomersView
	Backlog     *BacklogView
	Historical  *HistoricalView
	Unavailable template.HTML
	RenderedAt  time.Time
}
