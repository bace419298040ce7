package workingcap

import "github.com/durabrake/findash/internal/period"

// SeriesPoint is one month of the NWC trend.
type SeriesPoint struct {
	Period     period.Key `json:"period"`
	NWC        float64    `json:"nwc"`
	YTDRevenue float64    `json:"ytd_revenue"`
	NWCPct     *float64   `json:"nwc_pct"`
}

// CumulativeSeries reports NWC against cumulative year-to-date revenue for
// each month of a chronological series. The revenue base resets each January.
func CumulativeSeries(series []period.Financials) []SeriesPoint {
	out := make([]SeriesPoint, 0, len(series))
	var (
		year int
		ytd  float64
	)
	for _, rec := range series {
		if rec.Period.Year != year {
			year = rec.Period.Year
			ytd = 0
		}
		ytd += rec.Revenue
		pt := SeriesPoint{Period: rec.Period, NWC: rec.NWC(), YTDRevenue: ytd}
		if ytd != 0 {
			pct := pt.NWC / ytd * 100
			pt.NWCPct = &pct
		}
		out = append(out, pt)
	}
	return out
}
