package analytics

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

// Drift tolerances. A row is within tolerance when the absolute difference
// is at most DriftAbs plus DriftRel times the published magnitude.
const (
	DriftAbs = 0.01
	DriftRel = 0.005
)

// Drift compares one published figure with its recomputed value.
type Drift struct {
	Section   string   `json:"section"`
	Metric    string   `json:"metric"`
	Published *float64 `json:"published"`
	Derived   *float64 `json:"derived"`
	Delta     *float64 `json:"delta"`
	Within    bool     `json:"within"`
}

// Reconciliation lists drift rows for one period.
type Reconciliation struct {
	Period      period.Key `json:"period"`
	Rows        []Drift    `json:"rows"`
	Unavailable []string   `json:"unavailable,omitempty"`
}

// Mismatches counts rows outside tolerance.
func (r Reconciliation) Mismatches() int {
	n := 0
	for _, row := range r.Rows {
		if !row.Within {
			n++
		}
	}
	return n
}

// Reconcile recomputes the published sections of key from raw records and
// reports the drift. Results are not cached.
func (s *Service) Reconcile(ctx context.Context, key period.Key) (Reconciliation, error) {
	rec := Reconciliation{Period: key}

	dash, err := s.source.Dashboard(ctx, key)
	switch {
	case errors.Is(err, snapshot.ErrUnavailable):
		rec.Unavailable = append(rec.Unavailable, SectionSummary)
	case err != nil:
		return Reconciliation{}, err
	default:
		summary, err := s.buildSummary(dash)
		if err != nil {
			return Reconciliation{}, err
		}
		rec.Rows = append(rec.Rows, reconcileDashboard(dash.Doc, summary)...)
	}

	cust, err := s.source.Customers(ctx, key)
	switch {
	case errors.Is(err, snapshot.ErrUnavailable):
		rec.Unavailable = append(rec.Unavailable, SectionCustomers)
	case err != nil:
		return Reconciliation{}, err
	default:
		report := s.buildCustomers(cust, s.policy.TopCustomers)
		for _, slug := range sortedKeys(unionCounts(cust.Doc.RFMDistribution, report.Distribution)) {
			pub, okPub := cust.Doc.RFMDistribution[slug]
			rec.Rows = append(rec.Rows, drift(SectionCustomers, "rfm_distribution."+slug, intPtr(pub, okPub), ptr(float64(report.Distribution[slug]))))
		}
	}

	bl, err := s.source.Backlog(ctx, key)
	switch {
	case errors.Is(err, snapshot.ErrUnavailable):
		rec.Unavailable = append(rec.Unavailable, SectionBacklog)
	case err != nil:
		return Reconciliation{}, err
	default:
		report := backlog.Analyze(bl.Orders, bl.AsOf, s.policy.Backlog)
		rec.Rows = append(rec.Rows, reconcileBacklog(bl.Doc, report)...)
	}
	rec.Rows = dropUnpublished(rec.Rows)
	return rec, nil
}

func reconcileDashboard(doc snapshot.DashboardDoc, summary Summary) []Drift {
	var rows []Drift
	derived := make(map[string]Comparison, len(summary.Comparisons))
	for _, c := range summary.Comparisons {
		derived[string(c.Field)] = c
	}
	for _, name := range sortedKeys(doc.L3MComparison) {
		pub := doc.L3MComparison[name]
		c := derived[name]
		rows = append(rows,
			drift(SectionSummary, "l3m."+name+".current", pub.Current, c.Current),
			drift(SectionSummary, "l3m."+name+".l3m_avg", pub.L3MAvg, c.Average),
		)
		if pub.VariancePct != nil {
			rows = append(rows, drift(SectionSummary, "l3m."+name+".variance_pct", pub.VariancePct, c.VariancePct))
		}
		if pub.VariancePts != nil {
			rows = append(rows, drift(SectionSummary, "l3m."+name+".variance_pts", pub.VariancePts, c.VariancePts))
		}
	}
	if ytd := doc.YTDSummary; ytd != nil {
		rows = append(rows,
			drift(SectionSummary, "ytd.months", ptr(float64(ytd.Months)), ptr(float64(summary.YTD.Months))),
			drift(SectionSummary, "ytd.total_revenue", ytd.TotalRevenue, summary.YTD.Value(period.Revenue)),
			drift(SectionSummary, "ytd.total_gross_profit", ytd.TotalGrossProfit, summary.YTD.Value(period.GrossProfit)),
			drift(SectionSummary, "ytd.total_ebitda", ytd.TotalEBITDA, summary.YTD.Value(period.EBITDA)),
			drift(SectionSummary, "ytd.total_net_income", ytd.TotalNetIncome, summary.YTD.Value(period.NetIncome)),
			drift(SectionSummary, "ytd.total_operating_cf", ytd.TotalOperatingCF, summary.YTD.Value(period.OperatingCashFlow)),
			drift(SectionSummary, "ytd.avg_gross_margin_pct", ytd.AvgGrossMarginPct, summary.YTD.Value(period.GrossMarginPct)),
			drift(SectionSummary, "ytd.avg_ebitda_margin_pct", ytd.AvgEBITDAMarginPct, summary.YTD.Value(period.EBITDAMarginPct)),
			drift(SectionSummary, "ytd.avg_nwc", ytd.AvgNWC, summary.YTD.Value(period.NWC)),
		)
	}
	return rows
}

func reconcileBacklog(doc snapshot.BacklogDoc, report backlog.Report) []Drift {
	var rows []Drift
	if pub := doc.Summary; pub != nil {
		rows = append(rows,
			drift(SectionBacklog, "summary.total_backlog_value", ptr(pub.TotalBacklogValue), ptr(report.Summary.TotalValue)),
			drift(SectionBacklog, "summary.total_orders", ptr(float64(pub.TotalOrders)), ptr(float64(report.Summary.TotalOrders))),
			drift(SectionBacklog, "summary.avg_order_value", ptr(pub.AvgOrderValue), ptr(report.Summary.AvgOrderValue)),
			drift(SectionBacklog, "summary.avg_age_days", ptr(pub.AvgAgeDays), ptr(report.Summary.AvgAgeDays)),
		)
	}
	for _, b := range report.Age {
		pub, ok := doc.AgeDistribution[b.Label]
		if !ok {
			continue
		}
		rows = append(rows,
			drift(SectionBacklog, "age."+b.Label+".count", ptr(float64(pub.Count)), ptr(float64(b.Count))),
			drift(SectionBacklog, "age."+b.Label+".value", ptr(pub.Value), ptr(b.Value)),
		)
	}
	return rows
}

func drift(section, metric string, published, derived *float64) Drift {
	d := Drift{Section: section, Metric: metric, Published: published, Derived: derived}
	if published == nil || derived == nil {
		return d
	}
	delta := *derived - *published
	d.Delta = &delta
	d.Within = math.Abs(delta) <= DriftAbs+DriftRel*math.Abs(*published)
	return d
}

// dropUnpublished removes rows the snapshot has no published figure for.
func dropUnpublished(rows []Drift) []Drift {
	out := rows[:0]
	for _, r := range rows {
		if r.Published == nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

func intPtr(v int, ok bool) *float64 {
	if !ok {
		return nil
	}
	return ptr(float64(v))
}

func unionCounts(a, b map[string]int) map[string]int {
	out := make(map[string]int, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
