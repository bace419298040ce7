package analytics

import (
	"context"

	"github.com/durabrake/findash/internal/customers"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

// CustomerRow is a ranked customer with its trend and margin standing.
type CustomerRow struct {
	Rank           int                   `json:"rank"`
	Record         customers.Record      `json:"record"`
	Trend          customers.TrendResult `json:"trend"`
	MarginStanding customers.Standing    `json:"margin_standing"`
	PctOfL12M      *float64              `json:"pct_of_l12m"`
}

// CustomerReport is the customer tab of one period.
type CustomerReport struct {
	Period         period.Key                 `json:"period"`
	Rescored       bool                       `json:"rescored"`
	TotalCustomers int                        `json:"total_customers"`
	TotalL3MSales  float64                    `json:"total_l3m_sales"`
	TotalL12MSales float64                    `json:"total_l12m_sales"`
	Segments       []customers.SegmentSummary `json:"segments"`
	Distribution   map[string]int             `json:"distribution"`
	Top            []CustomerRow              `json:"top"`
	WeightedMargin *float64                   `json:"weighted_margin"`
	L3MShare       customers.TopShare         `json:"l3m_share"`
	L12MShare      customers.TopShare         `json:"l12m_share"`
	AnalysisPeriod string                     `json:"analysis_period"`
}

// Customers derives the customer tab for key. Segments are re-derived with
// the policy when every record carries recency and frequency.
func (s *Service) Customers(ctx context.Context, key period.Key) (CustomerReport, error) {
	return fetch(ctx, s, SectionCustomers, key, func(ctx context.Context) (CustomerReport, error) {
		cust, err := s.source.Customers(ctx, key)
		if err != nil {
			return CustomerReport{}, err
		}
		return s.buildCustomers(cust, s.policy.TopCustomers), nil
	})
}

func (s *Service) buildCustomers(cust *snapshot.Customers, n int) CustomerReport {
	records := cust.Records
	rescored := cust.Scorable && s.policy.Segments != nil
	if rescored {
		records = customers.Score(records, s.policy.Segments)
	}
	top := customers.Rank(records, n)
	avg := customers.WeightedMargin(top, customers.L12M)

	rows := make([]CustomerRow, 0, len(top))
	for i, rec := range top {
		row := CustomerRow{
			Rank:           i + 1,
			Record:         rec,
			Trend:          customers.Trend(rec.L3MSales, rec.L12MSales),
			MarginStanding: customers.MarginBand(rec.L12MMargin, avg),
		}
		if cust.TotalL12MSales != 0 {
			row.PctOfL12M = ptr(rec.L12MSales / cust.TotalL12MSales * 100)
		}
		rows = append(rows, row)
	}
	total := cust.Doc.Metadata.TotalCustomers
	if total == 0 {
		total = len(records)
	}
	return CustomerReport{
		Period:         cust.Period,
		Rescored:       rescored,
		TotalCustomers: total,
		TotalL3MSales:  cust.TotalL3MSales,
		TotalL12MSales: cust.TotalL12MSales,
		Segments:       customers.Aggregate(records),
		Distribution:   customers.Distribution(records),
		Top:            rows,
		WeightedMargin: avg,
		L3MShare:       customers.Share(customers.RankBy(records, customers.L3M, n), customers.L3M, cust.TotalL3MSales),
		L12MShare:      customers.Share(top, customers.L12M, cust.TotalL12MSales),
		AnalysisPeriod: cust.Doc.Metadata.AnalysisPeriodL12M,
	}
}
