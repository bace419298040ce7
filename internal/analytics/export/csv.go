package export

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/threshold"
)

// ErrUnknownSection is returned for sections without a CSV layout.
var ErrUnknownSection = errors.New("export: unknown section")

// Amount renders v as a fixed two-decimal string.
func Amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// AmountPtr renders an optional amount. Undefined values are empty.
func AmountPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return Amount(*v)
}

func status(s threshold.Status) string {
	return string(s)
}

// WriteSummaryCSV emits the summary comparisons followed by the monthly series.
func WriteSummaryCSV(w io.Writer, report analytics.Summary) error {
	rows := [][]string{{"Period", report.Period.String()}, {}, {"Metric", "Current", "L3M Average", "Variance %", "Variance pts", "Suppressed"}}
	for _, c := range report.Comparisons {
		rows = append(rows, []string{
			c.Label,
			AmountPtr(c.Current),
			AmountPtr(c.Average),
			AmountPtr(c.VariancePct),
			AmountPtr(c.VariancePts),
			strconv.FormatBool(c.Suppressed),
		})
	}
	rows = append(rows, []string{}, monthHeader())
	for _, m := range report.Series {
		rows = append(rows, monthRow(m))
	}
	return writeAll(w, rows)
}

// WriteProductsCSV emits one row per product line and month.
func WriteProductsCSV(w io.Writer, reports []analytics.ProductReport) error {
	rows := [][]string{append([]string{"Product"}, monthHeader()...)}
	for _, p := range reports {
		for _, m := range p.Series {
			rows = append(rows, append([]string{p.Name}, monthRow(m)...))
		}
	}
	return writeAll(w, rows)
}

// WriteNWCCSV emits the ratio table and the monthly ratio trend.
func WriteNWCCSV(w io.Writer, report analytics.WorkingCapitalReport) error {
	r, st := report.Ratios, report.Statuses
	rows := [][]string{
		{"Metric", "Value", "Status"},
		{"DSO", AmountPtr(r.DSO), status(st.DSO)},
		{"DIO", AmountPtr(r.DIO), status(st.DIO)},
		{"DPO", AmountPtr(r.DPO), status(st.DPO)},
		{"CCC", AmountPtr(r.CCC), status(st.CCC)},
		{"NWC", Amount(r.NWC), ""},
		{"NWC % of Revenue", AmountPtr(r.NWCPct), status(st.NWCPct)},
		{},
		{"Period", "DSO", "DIO", "DPO", "CCC", "NWC", "YTD Revenue", "NWC %"},
	}
	for i, pt := range report.Trend {
		row := []string{pt.Period.ShortName(), AmountPtr(pt.DSO), AmountPtr(pt.DIO), AmountPtr(pt.DPO), AmountPtr(pt.CCC)}
		if i < len(report.Cumulative) {
			c := report.Cumulative[i]
			row = append(row, Amount(c.NWC), Amount(c.YTDRevenue), AmountPtr(c.NWCPct))
		}
		rows = append(rows, row)
	}
	return writeAll(w, rows)
}

// WriteCustomersCSV emits the ranked customer table and segment aggregates.
func WriteCustomersCSV(w io.Writer, report analytics.CustomerReport) error {
	rows := [][]string{{"Rank", "Customer ID", "Customer", "L3M Sales", "L12M Sales", "L12M GP Margin", "% of L12M", "Trend", "Trend %", "Margin", "Segment"}}
	for _, row := range report.Top {
		rec := row.Record
		rows = append(rows, []string{
			strconv.Itoa(row.Rank),
			rec.ID,
			rec.Name,
			Amount(rec.L3MSales),
			Amount(rec.L12MSales),
			Amount(rec.L12MMargin),
			AmountPtr(row.PctOfL12M),
			string(row.Trend.Direction),
			AmountPtr(row.Trend.ChangePct),
			string(row.MarginStanding),
			string(rec.Segment),
		})
	}
	rows = append(rows, []string{}, []string{"Segment", "Customers", "Total Revenue", "Avg Revenue", "Avg Recency Days", "Avg Frequency"})
	for _, seg := range report.Segments {
		rows = append(rows, []string{
			string(seg.Segment),
			strconv.Itoa(seg.CustomerCount),
			Amount(seg.TotalRevenue),
			Amount(seg.AvgRevenuePerCustomer),
			Amount(seg.AvgRecencyDays),
			Amount(seg.AvgFrequency),
		})
	}
	return writeAll(w, rows)
}

// WriteBacklogCSV emits the backlog summary, distributions and rollups.
func WriteBacklogCSV(w io.Writer, report analytics.BacklogReport) error {
	s := report.Summary
	rows := [][]string{
		{"Metric", "Value", "Status"},
		{"Total Backlog Value", Amount(s.TotalValue), ""},
		{"Total Orders", strconv.Itoa(s.TotalOrders), ""},
		{"Avg Order Value", Amount(s.AvgOrderValue), ""},
		{"Avg Age Days", Amount(s.AvgAgeDays), status(report.AvgAgeStatus)},
		{"Orders >90 Days %", AmountPtr(report.AgedPct), status(report.AgedPctStatus)},
		{},
		{"Distribution", "Bucket", "Orders", "Value"},
	}
	for _, b := range report.Age {
		rows = append(rows, []string{"Age", b.Label, strconv.Itoa(b.Count), Amount(b.Value)})
	}
	for _, b := range report.Ship {
		rows = append(rows, []string{"Expected Ship", b.Label, strconv.Itoa(b.Count), Amount(b.Value)})
	}
	rows = append(rows, []string{}, []string{"Rollup", "Key", "Orders", "Value"})
	for _, g := range report.TopCustomers {
		rows = append(rows, []string{"Customer", g.Key, strconv.Itoa(g.OrderCount), Amount(g.TotalValue)})
	}
	for _, g := range report.BySalesRep {
		rows = append(rows, []string{"Sales Rep", g.Key, strconv.Itoa(g.OrderCount), Amount(g.TotalValue)})
	}
	for _, g := range report.ByRegion {
		rows = append(rows, []string{"Region", g.Key, strconv.Itoa(g.OrderCount), Amount(g.TotalValue)})
	}
	return writeAll(w, rows)
}

// WriteReconcileCSV emits drift rows.
func WriteReconcileCSV(w io.Writer, rec analytics.Reconciliation) error {
	rows := [][]string{{"Section", "Metric", "Published", "Derived", "Delta", "Within"}}
	for _, d := range rec.Rows {
		rows = append(rows, []string{d.Section, d.Metric, AmountPtr(d.Published), AmountPtr(d.Derived), AmountPtr(d.Delta), strconv.FormatBool(d.Within)})
	}
	return writeAll(w, rows)
}

func monthHeader() []string {
	return []string{"Period", "Revenue", "Gross Profit", "Gross Margin %", "EBITDA", "EBITDA Margin %", "Net Income", "Operating CF", "NWC"}
}

func monthRow(m analytics.MonthFigures) []string {
	return []string{
		m.Period.ShortName(),
		Amount(m.Revenue),
		Amount(m.GrossProfit),
		AmountPtr(m.GrossMarginPct),
		Amount(m.EBITDA),
		AmountPtr(m.EBITDAMarginPct),
		Amount(m.NetIncome),
		Amount(m.OperatingCashFlow),
		Amount(m.NWC),
	}
}

func writeAll(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
