package threshold

import (
	"errors"
	"fmt"
	"sort"
)

// Metric identifies a classified dashboard metric.
type Metric string

const (
	MetricDSO           Metric = "dso"
	MetricDIO           Metric = "dio"
	MetricDPO           Metric = "dpo"
	MetricCCC           Metric = "ccc"
	MetricNWCPct        Metric = "nwc_pct"
	MetricBacklogAvgAge Metric = "backlog_avg_age"
	MetricAgedOrdersPct Metric = "aged_orders_pct"
)

// ErrUnknownMetric is returned when a table is asked about a metric it does not hold.
var ErrUnknownMetric = errors.New("threshold: unknown metric")

// Table holds the band configuration per metric. Tables are plain values and
// are passed explicitly to every caller that classifies.
type Table map[Metric]Band

// DefaultTable returns the stock working-capital and backlog thresholds.
func DefaultTable() Table {
	return Table{
		MetricDSO:           {Green: 30, Yellow: 45, Direction: LowerIsBetter},
		MetricDIO:           {Green: 85, Yellow: 105, Direction: LowerIsBetter},
		MetricDPO:           {Green: 30, Yellow: 20, Direction: HigherIsBetter},
		MetricCCC:           {Green: 30, Yellow: 60, Direction: LowerIsBetter},
		MetricNWCPct:        {Green: 15, Yellow: 25, Direction: LowerIsBetter},
		MetricBacklogAvgAge: {Green: 45, Yellow: 60, Direction: LowerIsBetter},
		MetricAgedOrdersPct: {Green: 10, Yellow: 20, Direction: LowerIsBetter},
	}
}

// Band returns the configured band for metric.
func (t Table) Band(metric Metric) (Band, error) {
	band, ok := t[metric]
	if !ok {
		return Band{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	return band, nil
}

// Classify classifies an optional value for metric. Metrics missing from the
// table and undefined values both yield Unknown.
func (t Table) Classify(metric Metric, value *float64) Status {
	band, ok := t[metric]
	if !ok {
		return Unknown
	}
	return band.ClassifyValue(value)
}

// Override is a partial band. Nil cutoffs and an empty direction keep the
// base band's values.
type Override struct {
	Green     *float64  `yaml:"green"`
	Yellow    *float64  `yaml:"yellow"`
	Direction Direction `yaml:"direction"`
}

// Overrides maps metrics to partial bands.
type Overrides map[Metric]Override

// Merge returns a copy of t with overrides applied field by field. A metric
// absent from t starts from a zero band.
func (t Table) Merge(overrides Overrides) Table {
	out := make(Table, len(t)+len(overrides))
	for metric, band := range t {
		out[metric] = band
	}
	for metric, o := range overrides {
		band := out[metric]
		if o.Green != nil {
			band.Green = *o.Green
		}
		if o.Yellow != nil {
			band.Yellow = *o.Yellow
		}
		if o.Direction != "" {
			band.Direction = o.Direction
		}
		out[metric] = band
	}
	return out
}

// Validate checks that every band's cutoffs agree with its direction.
func (t Table) Validate() error {
	metrics := make([]string, 0, len(t))
	for metric := range t {
		metrics = append(metrics, string(metric))
	}
	sort.Strings(metrics)
	var errs []error
	for _, name := range metrics {
		band := t[Metric(name)]
		switch band.Direction {
		case LowerIsBetter:
			if band.Green > band.Yellow {
				errs = append(errs, fmt.Errorf("threshold %s: green %.2f above yellow %.2f", name, band.Green, band.Yellow))
			}
		case HigherIsBetter:
			if band.Green < band.Yellow {
				errs = append(errs, fmt.Errorf("threshold %s: green %.2f below yellow %.2f", name, band.Green, band.Yellow))
			}
		default:
			errs = append(errs, fmt.Errorf("threshold %s: invalid direction %q", name, band.Direction))
		}
	}
	return errors.Join(errs...)
}
