package ui

import (
	"fmt"
	"html/template"
	"net/url"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/svg"
	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/customers"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/threshold"
)

var tabLabels = map[string]string{
	analytics.SectionSummary:     "Summary",
	analytics.SectionProducts:    "Products",
	analytics.SectionNWC:         "Working Capital",
	analytics.SectionCustomers:   "Customers",
	analytics.SectionBacklog:     "Backlog",
	analytics.SectionHistoricals: "Historicals",
}

// Tabs builds the tab bar for path with active selected.
func Tabs(path string, key period.Key, active string) []TabLink {
	links := make([]TabLink, 0, len(analytics.Sections))
	for _, section := range analytics.Sections {
		q := url.Values{"tab": {section}, "period": {key.String()}}
		links = append(links, TabLink{
			Key:    section,
			Label:  tabLabels[section],
			Href:   path + "?" + q.Encode(),
			Active: section == active,
		})
	}
	return links
}

// TabLabel returns the display label of a section.
func TabLabel(section string) string {
	if label, ok := tabLabels[section]; ok {
		return label
	}
	return section
}

// Card formats a comparison. Ratio fields show points, other fields percent.
func Card(c analytics.Comparison) MetricCard {
	card := MetricCard{Label: c.Label}
	if c.Ratio {
		card.Value = Percent(c.Current)
		card.Average = Percent(c.Average)
		card.Variance = SignedPoints(c.VariancePts)
		card.VarianceClass = SignClass(c.VariancePts)
	} else {
		card.Value = MoneyPtr(c.Current)
		card.Average = MoneyPtr(c.Average)
		card.Variance = SignedPercent(c.VariancePct)
		card.VarianceClass = SignClass(c.VariancePct)
	}
	if c.Suppressed {
		card.Variance = NotAvailable
		card.VarianceClass = "flat"
	}
	return card
}

// Cards formats every comparison.
func Cards(cmps []analytics.Comparison) []MetricCard {
	out := make([]MetricCard, 0, len(cmps))
	for _, c := range cmps {
		out = append(out, Card(c))
	}
	return out
}

// RollupCards formats the headline totals of a rollup.
func RollupCards(r period.Rollup) []MetricCard {
	fields := []period.Field{period.Revenue, period.GrossProfit, period.GrossMarginPct, period.EBITDA, period.NetIncome, period.OperatingCashFlow}
	out := make([]MetricCard, 0, len(fields))
	for _, f := range fields {
		card := MetricCard{Label: f.Label()}
		if f.Kind() == period.Ratio {
			card.Value = Percent(r.Value(f))
		} else {
			card.Value = MoneyPtr(r.Value(f))
		}
		out = append(out, card)
	}
	return out
}

// BuildSummary renders the summary tab.
func BuildSummary(report analytics.Summary, charts Charts) (*SummaryView, error) {
	v := &SummaryView{
		Report: report,
		Cards:  Cards(report.Comparisons),
		YTD:    RollupCards(report.YTD),
		QTD:    RollupCards(report.QTD),
	}
	labels, revenue := monthSeries(report.Series)
	var err error
	if len(revenue) > 0 {
		v.RevenueSVG, err = charts.Line.Line(svg.DefaultWidth, svg.DefaultHeight, revenue, labels, svg.LineOpts{
			Title:       "Monthly Revenue",
			Description: "Company revenue per month",
			ShowDots:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("revenue chart: %w", err)
		}
	}
	rollLabels := make([]string, 0, len(report.Rolling))
	values := make([]float64, 0, len(report.Rolling))
	for _, pt := range report.Rolling {
		if pt.VariancePct == nil {
			continue
		}
		rollLabels = append(rollLabels, pt.Period.ShortName())
		values = append(values, *pt.VariancePct)
	}
	if len(values) > 0 {
		v.RollingSVG, err = charts.Column.Columns(svg.DefaultWidth, svg.DefaultHeight, values, rollLabels, svg.ColumnOpts{
			Title:       fmt.Sprintf("Revenue vs L%dM Average", report.Window),
			Description: "Monthly revenue against the trailing average",
			Suffix:      "%",
		})
		if err != nil {
			return nil, fmt.Errorf("rolling chart: %w", err)
		}
	}
	return v, nil
}

// BuildProducts renders the products tab.
func BuildProducts(reports []analytics.ProductReport, charts Charts) ([]ProductView, error) {
	out := make([]ProductView, 0, len(reports))
	for _, r := range reports {
		v := ProductView{Report: r, Cards: Cards(r.Comparisons), Share: Percent(r.ShareOfRevenue)}
		labels, revenue := monthSeries(r.Series)
		if len(revenue) > 0 {
			html, err := charts.Line.Line(svg.DefaultWidth, svg.DefaultHeight/2+40, revenue, labels, svg.LineOpts{
				Title:       r.Name + " Revenue",
				Description: "Monthly revenue of " + r.Name,
			})
			if err != nil {
				return nil, fmt.Errorf("%s chart: %w", r.Key, err)
			}
			v.RevenueSVG = html
		}
		out = append(out, v)
	}
	return out, nil
}

// BuildNWC renders the working capital tab.
func BuildNWC(report analytics.WorkingCapitalReport, charts Charts) (*NWCView, error) {
	r, st := report.Ratios, report.Statuses
	v := &NWCView{
		Report: report,
		Ratios: []RatioCard{
			ratioCard("DSO", Days(r.DSO), st.DSO),
			ratioCard("DIO", Days(r.DIO), st.DIO),
			ratioCard("DPO", Days(r.DPO), st.DPO),
			ratioCard("Cash Conversion Cycle", Days(r.CCC), st.CCC),
			ratioCard("NWC % of Revenue", Percent(r.NWCPct), st.NWCPct),
		},
	}
	labels := make([]string, 0, len(report.Cumulative))
	pcts := make([]float64, 0, len(report.Cumulative))
	for _, pt := range report.Cumulative {
		if pt.NWCPct == nil {
			continue
		}
		labels = append(labels, pt.Period.ShortName())
		pcts = append(pcts, *pt.NWCPct)
	}
	var err error
	if len(pcts) > 0 {
		v.NWCPctSVG, err = charts.Line.Line(svg.DefaultWidth, svg.DefaultHeight, pcts, labels, svg.LineOpts{
			Title:       "NWC % of YTD Revenue",
			Description: "Net working capital against cumulative revenue",
			ShowDots:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("nwc chart: %w", err)
		}
	}
	cccLabels := make([]string, 0, len(report.Trend))
	ccc := make([]float64, 0, len(report.Trend))
	for _, pt := range report.Trend {
		if pt.CCC == nil {
			continue
		}
		cccLabels = append(cccLabels, pt.Period.ShortName())
		ccc = append(ccc, *pt.CCC)
	}
	if len(ccc) > 0 {
		v.CCCSVG, err = charts.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, ccc, nil, cccLabels, svg.BarOpts{
			Title:        "Cash Conversion Cycle",
			Description:  "Days from cash out to cash in",
			SeriesALabel: "CCC (days)",
		})
		if err != nil {
			return nil, fmt.Errorf("ccc chart: %w", err)
		}
	}
	return v, nil
}

// BuildCustomers renders the customer tab.
func BuildCustomers(report analytics.CustomerReport, charts Charts) (*CustomersView, error) {
	v := &CustomersView{Report: report}
	labels := make([]string, 0, len(report.Segments))
	counts := make([]float64, 0, len(report.Segments))
	for _, seg := range report.Segments {
		labels = append(labels, string(seg.Segment))
		counts = append(counts, float64(seg.CustomerCount))
	}
	if len(counts) > 0 {
		html, err := charts.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, counts, nil, labels, svg.BarOpts{
			Title:        "Customers by RFM Segment",
			Description:  "Customer count per segment",
			SeriesALabel: "Customers",
		})
		if err != nil {
			return nil, fmt.Errorf("segment chart: %w", err)
		}
		v.SegmentSVG = html
	}
	return v, nil
}

// BuildBacklog renders the backlog tab.
func BuildBacklog(report analytics.BacklogReport, charts Charts) (*BacklogView, error) {
	v := &BacklogView{Report: report}
	var err error
	if len(report.Age) > 0 {
		labels, values := distribution(report.Age)
		v.AgeSVG, err = charts.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, values, nil, labels, svg.BarOpts{
			Title:        "Backlog by Age",
			Description:  "Open order value per age bucket",
			SeriesALabel: "Value",
		})
		if err != nil {
			return nil, fmt.Errorf("age chart: %w", err)
		}
	}
	if len(report.Ship) > 0 {
		labels, values := distribution(report.Ship)
		v.ShipSVG, err = charts.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, values, nil, labels, svg.BarOpts{
			Title:        "Backlog by Expected Ship Date",
			Description:  "Open order value per ship window",
			SeriesALabel: "Value",
			ColorA:       "#8b5cf6",
		})
		if err != nil {
			return nil, fmt.Errorf("ship chart: %w", err)
		}
	}
	return v, nil
}

// BuildHistorical renders the historicals tab.
func BuildHistorical(report analytics.Historical, charts Charts) (*HistoricalView, error) {
	v := &HistoricalView{Report: report, Cards: Cards(report.Comparisons)}
	labels, revenue := monthSeries(report.RevenueTrend)
	if len(revenue) > 0 {
		html, err := charts.Line.Line(svg.DefaultWidth, svg.DefaultHeight, revenue, labels, svg.LineOpts{
			Title:       "Revenue Trend",
			Description: "Monthly revenue through " + report.LongName,
		})
		if err != nil {
			return nil, fmt.Errorf("historical chart: %w", err)
		}
		v.RevenueSVG = html
	}
	return v, nil
}

// FuncMap exposes the formatters to templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":         Money,
		"moneyPtr":      MoneyPtr,
		"compact":       Compact,
		"percent":       Percent,
		"signedPercent": SignedPercent,
		"signedPoints":  SignedPoints,
		"days":          Days,
		"count":         Count,
		"statusClass":   StatusClass,
		"statusLabel":   StatusLabel,
		"trendClass":    TrendClass,
		"standingClass": StandingClass,
		"signClass":     SignClass,
		"tabLabel":      TabLabel,
		"segmentClass":  func(s customers.Segment) string { return "segment-" + s.Slug() },
	}
}

func ratioCard(label, value string, status threshold.Status) RatioCard {
	return RatioCard{Label: label, Value: value, StatusLabel: StatusLabel(status), StatusClass: StatusClass(status)}
}

func monthSeries(series []analytics.MonthFigures) ([]string, []float64) {
	labels := make([]string, 0, len(series))
	values := make([]float64, 0, len(series))
	for _, m := range series {
		labels = append(labels, m.Period.ShortName())
		values = append(values, m.Revenue)
	}
	return labels, values
}

func distribution(d backlog.Distribution) ([]string, []float64) {
	labels := make([]string, 0, len(d))
	values := make([]float64, 0, len(d))
	for _, b := range d {
		labels = append(labels, b.Label)
		values = append(values, b.Value)
	}
	return labels, values
}
