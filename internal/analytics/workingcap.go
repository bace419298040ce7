package analytics

import (
	"context"
	"fmt"

	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/workingcap"
)

// RatioPoint is one month of day-count ratios.
type RatioPoint struct {
	Period period.Key `json:"period"`
	DSO    *float64   `json:"dso"`
	DIO    *float64   `json:"dio"`
	DPO    *float64   `json:"dpo"`
	CCC    *float64   `json:"ccc"`
}

// WorkingCapitalReport is the NWC tab of one period.
type WorkingCapitalReport struct {
	Period             period.Key               `json:"period"`
	AccountsReceivable float64                  `json:"accounts_receivable"`
	Inventory          float64                  `json:"inventory"`
	AccountsPayable    float64                  `json:"accounts_payable"`
	YTDRevenue         float64                  `json:"ytd_revenue"`
	Ratios             workingcap.Ratios        `json:"ratios"`
	Statuses           workingcap.Statuses      `json:"statuses"`
	Cumulative         []workingcap.SeriesPoint `json:"cumulative"`
	Trend              []RatioPoint             `json:"trend"`
}

// WorkingCapital derives the working capital tab for key. NWC% uses year to
// date revenue as its base.
func (s *Service) WorkingCapital(ctx context.Context, key period.Key) (WorkingCapitalReport, error) {
	return fetch(ctx, s, SectionNWC, key, func(ctx context.Context) (WorkingCapitalReport, error) {
		dash, err := s.source.Dashboard(ctx, key)
		if err != nil {
			return WorkingCapitalReport{}, err
		}
		return s.buildWorkingCapital(dash)
	})
}

func (s *Service) buildWorkingCapital(dash *snapshot.Dashboard) (WorkingCapitalReport, error) {
	series := dash.Series
	if len(series) == 0 {
		return WorkingCapitalReport{}, fmt.Errorf("%w: no months up to %s", snapshot.ErrUnavailable, dash.Period)
	}
	cumulative := workingcap.CumulativeSeries(series)
	last := series[len(series)-1]
	ytd := cumulative[len(cumulative)-1].YTDRevenue
	ratios := workingcap.Compute(workingcap.InputsFor(last, ytd))

	trend := make([]RatioPoint, 0, len(series))
	for i, rec := range series {
		r := workingcap.Compute(workingcap.InputsFor(rec, cumulative[i].YTDRevenue))
		trend = append(trend, RatioPoint{Period: rec.Period, DSO: r.DSO, DIO: r.DIO, DPO: r.DPO, CCC: r.CCC})
	}
	return WorkingCapitalReport{
		Period:             dash.Period,
		AccountsReceivable: last.AccountsReceivable,
		Inventory:          last.Inventory,
		AccountsPayable:    last.AccountsPayable,
		YTDRevenue:         ytd,
		Ratios:             ratios,
		Statuses:           ratios.Classify(s.policy.Thresholds),
		Cumulative:         cumulative,
		Trend:              trend,
	}, nil
}
