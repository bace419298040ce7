package backlog

import (
	"sort"
	"time"

	"github.com/durabrake/findash/internal/threshold"
)

// AgedCutoffDays is the age from which an order counts as aged.
const AgedCutoffDays = 90

// TopCustomers is the size of the customer rollup.
const TopCustomers = 10

// Summary holds the headline backlog figures.
type Summary struct {
	TotalValue    float64 `json:"total_backlog_value"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	AvgAgeDays    float64 `json:"avg_age_days"`
}

// Summarize totals orders. Averages are zero for an empty backlog.
func Summarize(orders []Order) Summary {
	s := Summary{TotalOrders: len(orders)}
	if len(orders) == 0 {
		return s
	}
	var age float64
	for _, o := range orders {
		s.TotalValue += o.Value
		age += float64(o.AgeDays)
	}
	s.AvgOrderValue = s.TotalValue / float64(len(orders))
	s.AvgAgeDays = age / float64(len(orders))
	return s
}

// Group is a rollup row.
type Group struct {
	Key        string  `json:"key"`
	OrderCount int     `json:"order_count"`
	TotalValue float64 `json:"total_value"`
}

// ByCustomer rolls up by customer and keeps the top n by value.
func ByCustomer(orders []Order, n int) []Group {
	groups := rollup(orders, func(o Order) string { return o.Customer })
	if n > 0 && n < len(groups) {
		groups = groups[:n]
	}
	return groups
}

// BySalesRep rolls up every sales rep.
func BySalesRep(orders []Order) []Group {
	return rollup(orders, func(o Order) string { return o.SalesRep })
}

// ByRegion rolls up every region.
func ByRegion(orders []Order) []Group {
	return rollup(orders, func(o Order) string { return o.Region })
}

func rollup(orders []Order, key func(Order) string) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, o := range orders {
		k := key(o)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].OrderCount++
		groups[i].TotalValue += o.Value
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].TotalValue != groups[j].TotalValue {
			return groups[i].TotalValue > groups[j].TotalValue
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// Config controls Analyze.
type Config struct {
	AgeBuckets  Buckets
	ShipBuckets Buckets
	TopN        int
	Thresholds  threshold.Table
}

// DefaultConfig returns the stock buckets and the default threshold table.
func DefaultConfig() Config {
	return Config{
		AgeBuckets:  DefaultAgeBuckets(),
		ShipBuckets: DefaultShipBuckets(),
		TopN:        TopCustomers,
		Thresholds:  threshold.DefaultTable(),
	}
}

// Report is the full backlog analysis for one snapshot.
type Report struct {
	AsOf          time.Time        `json:"as_of"`
	Summary       Summary          `json:"summary"`
	Age           Distribution     `json:"age_distribution"`
	Ship          Distribution     `json:"ship_date_distribution"`
	TopCustomers  []Group          `json:"top_customers"`
	BySalesRep    []Group          `json:"by_sales_rep"`
	ByRegion      []Group          `json:"by_region"`
	AgedPct       *float64         `json:"aged_pct"`
	AvgAgeStatus  threshold.Status `json:"avg_age_status"`
	AgedPctStatus threshold.Status `json:"aged_pct_status"`
}

// Analyze runs every backlog aggregation over orders.
func Analyze(orders []Order, asOf time.Time, cfg Config) Report {
	if cfg.AgeBuckets == nil {
		cfg.AgeBuckets = DefaultAgeBuckets()
	}
	if cfg.ShipBuckets == nil {
		cfg.ShipBuckets = DefaultShipBuckets()
	}
	if cfg.TopN == 0 {
		cfg.TopN = TopCustomers
	}
	r := Report{
		AsOf:         asOf,
		Summary:      Summarize(orders),
		Age:          AgeDistribution(orders, cfg.AgeBuckets),
		Ship:         ShipDistribution(orders, asOf, cfg.ShipBuckets),
		TopCustomers: ByCustomer(orders, cfg.TopN),
		BySalesRep:   BySalesRep(orders),
		ByRegion:     ByRegion(orders),
	}
	r.AgedPct = AgedPct(r.Age, r.Summary.TotalOrders, AgedCutoffDays)

	var avgAge *float64
	if r.Summary.TotalOrders > 0 {
		v := r.Summary.AvgAgeDays
		avgAge = &v
	}
	r.AvgAgeStatus = cfg.Thresholds.Classify(threshold.MetricBacklogAvgAge, avgAge)
	r.AgedPctStatus = cfg.Thresholds.Classify(threshold.MetricAgedOrdersPct, r.AgedPct)
	return r
}
