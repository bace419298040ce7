package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

// SuppressVariancePct is the magnitude beyond which a net income variance is
// shown as N/A. Near-zero baselines make the percentage meaningless.
const SuppressVariancePct = 1000

// SummaryFields are the comparisons shown on the summary tab.
var SummaryFields = []period.Field{
	period.Revenue,
	period.GrossProfit,
	period.GrossMarginPct,
	period.EBITDA,
	period.EBITDAMarginPct,
	period.NetIncome,
	period.OperatingCashFlow,
	period.NWC,
}

// MonthFigures are the reported facts of one month.
type MonthFigures struct {
	Period            period.Key `json:"period"`
	Label             string     `json:"label"`
	Revenue           float64    `json:"revenue"`
	GrossProfit       float64    `json:"gross_profit"`
	EBITDA            float64    `json:"ebitda"`
	NetIncome         float64    `json:"net_income"`
	OperatingCashFlow float64    `json:"operating_cash_flow"`
	NWC               float64    `json:"nwc"`
	GrossMarginPct    *float64   `json:"gross_margin_pct"`
	EBITDAMarginPct   *float64   `json:"ebitda_margin_pct"`
}

func figuresOf(rec period.Financials) MonthFigures {
	return MonthFigures{
		Period:            rec.Period,
		Label:             rec.Period.ShortName(),
		Revenue:           rec.Revenue,
		GrossProfit:       rec.GrossProfit,
		EBITDA:            rec.EBITDA,
		NetIncome:         rec.NetIncome,
		OperatingCashFlow: rec.OperatingCashFlow,
		NWC:               rec.NWC(),
		GrossMarginPct:    rec.GrossMarginPct(),
		EBITDAMarginPct:   rec.EBITDAMarginPct(),
	}
}

func figuresOfSeries(series []period.Financials) []MonthFigures {
	out := make([]MonthFigures, 0, len(series))
	for _, rec := range series {
		out = append(out, figuresOf(rec))
	}
	return out
}

// Comparison is a field against its trailing average. Suppressed marks a
// variance that should render as N/A.
type Comparison struct {
	Field       period.Field `json:"field"`
	Label       string       `json:"label"`
	Ratio       bool         `json:"ratio"`
	Current     *float64     `json:"current"`
	Average     *float64     `json:"average"`
	VariancePct *float64     `json:"variance_pct,omitempty"`
	VariancePts *float64     `json:"variance_pts,omitempty"`
	Suppressed  bool         `json:"suppressed,omitempty"`
}

func comparisons(series []period.Financials, window int, fields ...period.Field) []Comparison {
	raw := period.CompareAll(series, window, fields...)
	out := make([]Comparison, 0, len(raw))
	for _, c := range raw {
		cmp := Comparison{
			Field:       c.Field,
			Label:       c.Field.Label(),
			Ratio:       c.Field.Kind() == period.Ratio,
			Current:     c.Current,
			Average:     c.Average,
			VariancePct: c.VariancePct,
			VariancePts: c.VariancePts,
		}
		if c.Field == period.NetIncome && c.VariancePct != nil && math.Abs(*c.VariancePct) >= SuppressVariancePct {
			cmp.Suppressed = true
		}
		out = append(out, cmp)
	}
	return out
}

// Summary is the executive summary of one period.
type Summary struct {
	Period      period.Key            `json:"period"`
	Window      int                   `json:"window"`
	Current     MonthFigures          `json:"current"`
	Comparisons []Comparison          `json:"comparisons"`
	Series      []MonthFigures        `json:"series"`
	Rolling     []period.RollingPoint `json:"rolling"`
	YTD         period.Rollup         `json:"ytd"`
	QTD         period.Rollup         `json:"qtd"`
	GeneratedAt string                `json:"generated_at,omitempty"`
}

// Summary derives the summary tab for key.
func (s *Service) Summary(ctx context.Context, key period.Key) (Summary, error) {
	return fetch(ctx, s, SectionSummary, key, func(ctx context.Context) (Summary, error) {
		dash, err := s.source.Dashboard(ctx, key)
		if err != nil {
			return Summary{}, err
		}
		return s.buildSummary(dash)
	})
}

func (s *Service) buildSummary(dash *snapshot.Dashboard) (Summary, error) {
	series := dash.Series
	if len(series) == 0 {
		return Summary{}, fmt.Errorf("%w: no months up to %s", snapshot.ErrUnavailable, dash.Period)
	}
	window := s.policy.Window
	last := series[len(series)-1]
	return Summary{
		Period:      dash.Period,
		Window:      window,
		Current:     figuresOf(last),
		Comparisons: comparisons(series, window, SummaryFields...),
		Series:      figuresOfSeries(series),
		Rolling:     period.RollingVariance(series, period.Revenue, window),
		YTD:         period.YTD(series, last.Period),
		QTD:         period.QuarterToDate(series, last.Period),
		GeneratedAt: dash.Doc.Metadata.GeneratedAt,
	}, nil
}
