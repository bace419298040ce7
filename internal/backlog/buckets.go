// Package backlog aggregates open sales orders by age, ship window and owner.
package backlog

import (
	"math"
	"time"
)

// Order is an open order as of the analysis date.
type Order struct {
	ID           string     `json:"id"`
	Customer     string     `json:"customer"`
	SalesRep     string     `json:"sales_rep"`
	Region       string     `json:"region"`
	Value        float64    `json:"value"`
	AgeDays      int        `json:"age_days"`
	ExpectedShip *time.Time `json:"expected_ship,omitempty"`
}

// Bucket is the half-open day range [Lower, Upper).
type Bucket struct {
	Label string
	Lower float64
	Upper float64
}

// Contains reports whether days falls inside b.
func (b Bucket) Contains(days float64) bool {
	return days >= b.Lower && days < b.Upper
}

// Buckets is an ordered set of non-overlapping ranges.
type Buckets []Bucket

// Find returns the index of the bucket containing days, or -1.
func (bs Buckets) Find(days float64) int {
	for i, b := range bs {
		if b.Contains(days) {
			return i
		}
	}
	return -1
}

// DefaultAgeBuckets partitions order age in days.
func DefaultAgeBuckets() Buckets {
	return Buckets{
		{Label: "0-30 days", Lower: 0, Upper: 30},
		{Label: "31-60 days", Lower: 30, Upper: 60},
		{Label: "61-90 days", Lower: 60, Upper: 90},
		{Label: "91-180 days", Lower: 90, Upper: 180},
		{Label: "180+ days", Lower: 180, Upper: math.Inf(1)},
	}
}

// DefaultShipBuckets partitions days until the expected ship date.
func DefaultShipBuckets() Buckets {
	return Buckets{
		{Label: "Past Due", Lower: math.Inf(-1), Upper: 0},
		{Label: "0-30 days", Lower: 0, Upper: 31},
		{Label: "31-60 days", Lower: 31, Upper: 61},
		{Label: "61-90 days", Lower: 61, Upper: 91},
		{Label: "90+ days", Lower: 91, Upper: math.Inf(1)},
	}
}

// BucketTotal is the order count and value of one bucket.
type BucketTotal struct {
	Label string  `json:"label"`
	Lower float64 `json:"-"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Distribution is a bucketed view of a set of orders.
type Distribution []BucketTotal

// Orders totals the order count across buckets.
func (d Distribution) Orders() int {
	var n int
	for _, b := range d {
		n += b.Count
	}
	return n
}

// AgeDistribution buckets orders by age.
func AgeDistribution(orders []Order, buckets Buckets) Distribution {
	return distribute(orders, buckets, func(o Order) (float64, bool) {
		return float64(o.AgeDays), true
	})
}

// ShipDistribution buckets orders by days from asOf to the expected ship
// date. Orders without a ship date are left out.
func ShipDistribution(orders []Order, asOf time.Time, buckets Buckets) Distribution {
	base := truncateDay(asOf)
	return distribute(orders, buckets, func(o Order) (float64, bool) {
		if o.ExpectedShip == nil {
			return 0, false
		}
		return math.Floor(truncateDay(*o.ExpectedShip).Sub(base).Hours() / 24), true
	})
}

// AgedPct is the percentage of totalOrders that sit in buckets starting at
// or beyond cutoff days. Orders outside every bucket still count toward the
// denominator. It is nil when totalOrders is zero.
func AgedPct(d Distribution, totalOrders int, cutoff float64) *float64 {
	if totalOrders <= 0 {
		return nil
	}
	var aged int
	for _, b := range d {
		if b.Lower >= cutoff {
			aged += b.Count
		}
	}
	pct := float64(aged) / float64(totalOrders) * 100
	return &pct
}

func distribute(orders []Order, buckets Buckets, key func(Order) (float64, bool)) Distribution {
	out := make(Distribution, len(buckets))
	for i, b := range buckets {
		out[i] = BucketTotal{Label: b.Label, Lower: b.Lower}
	}
	for _, o := range orders {
		days, ok := key(o)
		if !ok {
			continue
		}
		if i := buckets.Find(days); i >= 0 {
			out[i].Count++
			out[i].Value += o.Value
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
