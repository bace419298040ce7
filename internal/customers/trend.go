package customers

// TrendThreshold is the run-rate change, in percent, beyond which sales are
// considered growing or declining.
const TrendThreshold = 10.0

// NearMarginPts is how far below the weighted average a margin may sit and
// still count as near it.
const NearMarginPts = 5.0

// Direction is a sales trend label.
type Direction string

const (
	Growing      Direction = "growing"
	Stable       Direction = "stable"
	Declining    Direction = "declining"
	TrendUnknown Direction = "unknown"
)

// TrendResult compares the L3M monthly run-rate with the L12M run-rate.
type TrendResult struct {
	ChangePct *float64  `json:"change_pct"`
	Direction Direction `json:"direction"`
}

// Trend classifies l3m and l12m sales totals. The boundaries are exclusive:
// a change of exactly 10% is stable.
func Trend(l3mSales, l12mSales float64) TrendResult {
	l12mMonthly := l12mSales / 12
	if l12mMonthly == 0 {
		return TrendResult{Direction: TrendUnknown}
	}
	l3mMonthly := l3mSales / 3
	change := (l3mMonthly - l12mMonthly) / l12mMonthly * 100
	res := TrendResult{ChangePct: &change, Direction: Stable}
	switch {
	case change > TrendThreshold:
		res.Direction = Growing
	case change < -TrendThreshold:
		res.Direction = Declining
	}
	return res
}

// Standing places a margin relative to the weighted average margin.
type Standing string

const (
	Above           Standing = "above"
	Near            Standing = "near"
	Below           Standing = "below"
	StandingUnknown Standing = "unknown"
)

// WeightedMargin is the sales-weighted average margin over records for w. It
// is nil when total sales are zero.
func WeightedMargin(records []Record, w Window) *float64 {
	var weighted, total float64
	for _, r := range records {
		weighted += r.Sales(w) * r.Margin(w)
		total += r.Sales(w)
	}
	if total == 0 {
		return nil
	}
	avg := weighted / total
	return &avg
}

// MarginBand classifies margin against avg. Without an average the standing
// is unknown.
func MarginBand(margin float64, avg *float64) Standing {
	if avg == nil {
		return StandingUnknown
	}
	switch {
	case margin >= *avg:
		return Above
	case margin >= *avg-NearMarginPts:
		return Near
	default:
		return Below
	}
}
