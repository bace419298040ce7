package period

import "sort"

// DefaultWindow is the trailing window used for L3M comparisons.
const DefaultWindow = 3

// Delta is the difference between a current value and its baseline.
// Pct is relative change in percent and is nil when the baseline is zero.
// Pts is the absolute difference, used for values that are already percentages.
type Delta struct {
	Pct *float64 `json:"pct"`
	Pts float64  `json:"pts"`
}

// Variance compares current against average.
func Variance(current, average float64) Delta {
	d := Delta{Pts: current - average}
	if average != 0 {
		pct := (current - average) / average * 100
		d.Pct = &pct
	}
	return d
}

// Sort orders a series chronologically in place.
func Sort(series []Financials) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Period.Before(series[j].Period)
	})
}

// Until returns the prefix of a chronological series ending at key inclusive.
func Until(series []Financials, key Key) []Financials {
	for i := len(series) - 1; i >= 0; i-- {
		if !key.Before(series[i].Period) {
			return series[:i+1]
		}
	}
	return nil
}

// TrailingAverage averages field over the window periods strictly preceding
// the last entry of series. It is nil when fewer than window prior periods exist.
func TrailingAverage(series []Financials, field Field, window int) *float64 {
	if len(series) == 0 {
		return nil
	}
	return TrailingAverageAt(series, len(series)-1, field, window)
}

// TrailingAverageAt averages field over series[i-window:i]. Months where a
// ratio field is undefined are skipped; nil is returned when none remain.
func TrailingAverageAt(series []Financials, i int, field Field, window int) *float64 {
	if window <= 0 || i < window || i >= len(series) {
		return nil
	}
	return mean(series[i-window:i], field)
}

// Comparison is a field's current value against its trailing average.
// VariancePct is reported for amount fields and VariancePts for ratio fields.
type Comparison struct {
	Field       Field    `json:"field"`
	Current     *float64 `json:"current"`
	Average     *float64 `json:"average"`
	VariancePct *float64 `json:"variance_pct,omitempty"`
	VariancePts *float64 `json:"variance_pts,omitempty"`
}

// Compare builds the comparison for the last period in series.
func Compare(series []Financials, field Field, window int) Comparison {
	cmp := Comparison{Field: field}
	if len(series) == 0 {
		return cmp
	}
	cmp.Current = field.Value(series[len(series)-1])
	cmp.Average = TrailingAverage(series, field, window)
	fillVariance(&cmp, field)
	return cmp
}

// CompareAll compares every field in fields.
func CompareAll(series []Financials, window int, fields ...Field) []Comparison {
	out := make([]Comparison, 0, len(fields))
	for _, f := range fields {
		out = append(out, Compare(series, f, window))
	}
	return out
}

func fillVariance(cmp *Comparison, field Field) {
	if cmp.Current == nil || cmp.Average == nil {
		return
	}
	d := Variance(*cmp.Current, *cmp.Average)
	if field.Kind() == Ratio {
		pts := d.Pts
		cmp.VariancePts = &pts
		return
	}
	cmp.VariancePct = d.Pct
}

// Rollup is a set of field totals or averages over a contiguous period range.
type Rollup struct {
	From   Key                `json:"from"`
	To     Key                `json:"to"`
	Months int                `json:"months"`
	Values map[Field]*float64 `json:"values"`
}

// Value returns the rolled up value for f, or nil.
func (r Rollup) Value(f Field) *float64 {
	return r.Values[f]
}

// RollupRange sums flow fields and averages balance and ratio fields over
// periods from..to inclusive. All fields are rolled up when none are given.
func RollupRange(series []Financials, from, to Key, fields ...Field) Rollup {
	if len(fields) == 0 {
		fields = Fields
	}
	var window []Financials
	for _, rec := range series {
		if rec.Period.Before(from) || to.Before(rec.Period) {
			continue
		}
		window = append(window, rec)
	}
	r := Rollup{From: from, To: to, Months: len(window), Values: make(map[Field]*float64, len(fields))}
	if len(window) == 0 {
		return r
	}
	for _, f := range fields {
		if f.Kind() == Flow {
			var total float64
			for _, rec := range window {
				total += *f.Value(rec)
			}
			r.Values[f] = &total
			continue
		}
		r.Values[f] = mean(window, f)
	}
	return r
}

// YTD rolls up the calendar year through current.
func YTD(series []Financials, current Key, fields ...Field) Rollup {
	return RollupRange(series, current.YearStart(), current, fields...)
}

// QuarterToDate rolls up current's quarter through current.
func QuarterToDate(series []Financials, current Key, fields ...Field) Rollup {
	return RollupRange(series, current.QuarterStart(), current, fields...)
}

// RollingPoint is one period compared against the trailing window before it.
type RollingPoint struct {
	Period      Key      `json:"period"`
	Field       Field    `json:"field"`
	Value       *float64 `json:"value"`
	Average     *float64 `json:"average"`
	VariancePct *float64 `json:"variance_pct,omitempty"`
	VariancePts *float64 `json:"variance_pts,omitempty"`
}

// RollingVariance compares every period with a full trailing window against
// that window's average. Positive variance means above the average.
func RollingVariance(series []Financials, field Field, window int) []RollingPoint {
	var out []RollingPoint
	for i := range series {
		avg := TrailingAverageAt(series, i, field, window)
		if avg == nil {
			continue
		}
		cmp := Comparison{Field: field, Current: field.Value(series[i]), Average: avg}
		fillVariance(&cmp, field)
		out = append(out, RollingPoint{
			Period:      series[i].Period,
			Field:       field,
			Value:       cmp.Current,
			Average:     avg,
			VariancePct: cmp.VariancePct,
			VariancePts: cmp.VariancePts,
		})
	}
	return out
}

// mean uses an incremental update so a constant run averages to itself exactly.
func mean(records []Financials, field Field) *float64 {
	var (
		m float64
		n int
	)
	for _, rec := range records {
		v := field.Value(rec)
		if v == nil {
			continue
		}
		n++
		m += (*v - m) / float64(n)
	}
	if n == 0 {
		return nil
	}
	return &m
}
