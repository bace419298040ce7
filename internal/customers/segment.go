// Package customers scores customers into RFM segments and ranks them by sales.
package customers

import "sort"

// Segment is an RFM segment label.
type Segment string

const (
	Champions      Segment = "Champions"
	LoyalCustomers Segment = "Loyal Customers"
	AtRisk         Segment = "At Risk"
	Hibernating    Segment = "Hibernating"
)

// Segments lists the enumerated segments in display order.
var Segments = []Segment{Champions, LoyalCustomers, AtRisk, Hibernating}

// Slug is the snake_case key used in distribution maps.
func (s Segment) Slug() string {
	switch s {
	case Champions:
		return "champions"
	case LoyalCustomers:
		return "loyal_customers"
	case AtRisk:
		return "at_risk"
	case Hibernating:
		return "hibernating"
	default:
		return string(s)
	}
}

// Policy assigns a segment from recency in days, purchase count and
// twelve-month revenue.
type Policy func(recencyDays, frequency int, monetary float64) Segment

// TierPolicy scores each RFM dimension from 1 to 5 and maps the total score
// to a segment.
type TierPolicy struct {
	// RecencyDays holds ascending upper bounds scoring 5, 4, 3 and 2.
	RecencyDays []int `yaml:"recency_days"`
	// Frequency holds descending lower bounds scoring 5, 4, 3 and 2.
	Frequency []int `yaml:"frequency"`
	// Monetary holds descending lower bounds scoring 5, 4, 3 and 2.
	Monetary []float64 `yaml:"monetary"`

	Champions int `yaml:"champions"`
	Loyal     int `yaml:"loyal"`
	AtRisk    int `yaml:"at_risk"`
}

// DefaultTiers returns the stock tier boundaries.
func DefaultTiers() TierPolicy {
	return TierPolicy{
		RecencyDays: []int{30, 90, 180, 365},
		Frequency:   []int{20, 11, 6, 3},
		Monetary:    []float64{500_000, 250_000, 100_000, 25_000},
		Champions:   12,
		Loyal:       9,
		AtRisk:      6,
	}
}

// DefaultPolicy is DefaultTiers as a Policy.
func DefaultPolicy() Policy {
	return DefaultTiers().Assign
}

// Assign implements Policy.
func (p TierPolicy) Assign(recencyDays, frequency int, monetary float64) Segment {
	score := p.recencyScore(recencyDays) + p.frequencyScore(frequency) + p.monetaryScore(monetary)
	switch {
	case score >= p.Champions:
		return Champions
	case score >= p.Loyal:
		return LoyalCustomers
	case score >= p.AtRisk:
		return AtRisk
	default:
		return Hibernating
	}
}

func (p TierPolicy) recencyScore(days int) int {
	for i, bound := range p.RecencyDays {
		if days <= bound {
			return 5 - i
		}
	}
	return 1
}

func (p TierPolicy) frequencyScore(count int) int {
	for i, bound := range p.Frequency {
		if count >= bound {
			return 5 - i
		}
	}
	return 1
}

func (p TierPolicy) monetaryScore(amount float64) int {
	for i, bound := range p.Monetary {
		if amount >= bound {
			return 5 - i
		}
	}
	return 1
}

// Score returns a copy of records with segments assigned by policy. A nil
// policy keeps the segments already present.
func Score(records []Record, policy Policy) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	if policy == nil {
		return out
	}
	for i := range out {
		out[i].Segment = policy(out[i].RecencyDays, out[i].Frequency, out[i].Monetary)
	}
	return out
}

// SegmentSummary aggregates the members of one segment.
type SegmentSummary struct {
	Segment               Segment `json:"segment"`
	CustomerCount         int     `json:"customer_count"`
	TotalRevenue          float64 `json:"total_revenue"`
	AvgRevenuePerCustomer float64 `json:"avg_revenue_per_customer"`
	AvgRecencyDays        float64 `json:"avg_recency_days"`
	AvgFrequency          float64 `json:"avg_frequency"`
}

// Aggregate summarises every enumerated segment, in display order, followed
// by any other labels present in records. Empty segments report zeros.
func Aggregate(records []Record) []SegmentSummary {
	members := make(map[Segment][]Record)
	for _, rec := range records {
		members[rec.Segment] = append(members[rec.Segment], rec)
	}
	order := append([]Segment(nil), Segments...)
	var extra []string
	for seg := range members {
		if !isEnumerated(seg) {
			extra = append(extra, string(seg))
		}
	}
	sort.Strings(extra)
	for _, seg := range extra {
		order = append(order, Segment(seg))
	}

	out := make([]SegmentSummary, 0, len(order))
	for _, seg := range order {
		out = append(out, summarize(seg, members[seg]))
	}
	return out
}

// Distribution counts customers per segment slug.
func Distribution(records []Record) map[string]int {
	dist := make(map[string]int, len(Segments))
	for _, seg := range Segments {
		dist[seg.Slug()] = 0
	}
	for _, rec := range records {
		dist[rec.Segment.Slug()]++
	}
	return dist
}

func summarize(seg Segment, members []Record) SegmentSummary {
	s := SegmentSummary{Segment: seg, CustomerCount: len(members)}
	if len(members) == 0 {
		return s
	}
	var recency, frequency float64
	for _, m := range members {
		s.TotalRevenue += m.Monetary
		recency += float64(m.RecencyDays)
		frequency += float64(m.Frequency)
	}
	n := float64(len(members))
	s.AvgRevenuePerCustomer = s.TotalRevenue / n
	s.AvgRecencyDays = recency / n
	s.AvgFrequency = frequency / n
	return s
}

func isEnumerated(seg Segment) bool {
	for _, s := range Segments {
		if s == seg {
			return true
		}
	}
	return false
}
