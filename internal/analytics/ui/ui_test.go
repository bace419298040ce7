package ui

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/svg"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/threshold"
)

func f(v float64) *float64 { return &v }

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$1,234,567", Money(1_234_567.4))
	assert.Equal(t, "-$2,500", Money(-2500))
	assert.Equal(t, "$1.2M", Compact(1_230_000))
	assert.Equal(t, "12.5%", Percent(f(12.5)))
	assert.Equal(t, NotAvailable, Percent(nil))
	assert.Equal(t, "+1.8%", SignedPercent(f(1.818)))
	assert.Equal(t, "-0.4 pts", SignedPoints(f(-0.4)))
	assert.Equal(t, "45.0 days", Days(f(45)))
	assert.Equal(t, "status-poor", StatusClass(threshold.Poor))
	assert.Equal(t, "status-unknown", StatusClass(threshold.Unknown))
}

func TestCardSuppressedVariance(t *testing.T) {
	card := Card(analytics.Comparison{Field: period.NetIncome, Label: "Net Income", Current: f(100), Average: f(1), VariancePct: f(9900), Suppressed: true})
	assert.Equal(t, NotAvailable, card.Variance)
	assert.Equal(t, "$100", card.Value)

	ratio := Card(analytics.Comparison{Field: period.GrossMarginPct, Label: "Gross Margin %", Ratio: true, Current: f(41), Average: f(40), VariancePts: f(1)})
	assert.Equal(t, "+1.0 pts", ratio.Variance)
	assert.Equal(t, "up", ratio.VarianceClass)
}

func TestTabsMarkActive(t *testing.T) {
	tabs := Tabs("/dashboard", period.MustParseKey("25.12"), analytics.SectionNWC)
	require.Len(t, tabs, len(analytics.Sections))
	assert.True(t, tabs[2].Active)
	assert.Equal(t, "/dashboard?period=25.12&tab=nwc", tabs[2].Href)
}

func TestBuildSummaryCharts(t *testing.T) {
	key := period.MustParseKey("25.03")
	report := analytics.Summary{
		Period: key,
		Window: 3,
		Series: []analytics.MonthFigures{
			{Period: key.Add(-2), Revenue: 100},
			{Period: key.Add(-1), Revenue: 120},
			{Period: key, Revenue: 90},
		},
		Rolling: []period.RollingPoint{{Period: key, VariancePct: f(-18)}},
	}
	view, err := BuildSummary(report, DefaultCharts())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(view.RevenueSVG), "<svg"))
	assert.Contains(t, string(view.RollingSVG), "Revenue vs L3M Average")
}

type columnRecorder struct {
	values []float64
	labels []string
}

func (c *columnRecorder) Columns(_, _ int, values []float64, labels []string, _ svg.ColumnOpts) (template.HTML, error) {
	c.values, c.labels = values, labels
	return "<svg></svg>", nil
}

func TestBuildSummarySkipsUndefinedVariance(t *testing.T) {
	key := period.MustParseKey("25.03")
	rec := &columnRecorder{}
	charts := DefaultCharts()
	charts.Column = rec

	// January follows three zero-revenue months so its trailing average is zero.
	report := analytics.Summary{
		Period: key,
		Window: 3,
		Rolling: []period.RollingPoint{
			{Period: key.Add(-2), Value: f(50), Average: f(0)},
			{Period: key.Add(-1), VariancePct: f(12)},
			{Period: key, VariancePct: f(-18)},
		},
	}
	view, err := BuildSummary(report, charts)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, -18}, rec.values)
	assert.Equal(t, []string{"Feb 2025", "Mar 2025"}, rec.labels)
	assert.NotEmpty(t, view.RollingSVG)

	report.Rolling = report.Rolling[:1]
	view, err = BuildSummary(report, DefaultCharts())
	require.NoError(t, err)
	assert.Empty(t, view.RollingSVG)
}
