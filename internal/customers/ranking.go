package customers

import "sort"

// Record is one customer's sales history and RFM inputs.
type Record struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	RecencyDays     int     `json:"recency_days"`
	Frequency       int     `json:"frequency"`
	Monetary        float64 `json:"monetary"`
	L3MSales        float64 `json:"l3m_sales"`
	L3MGrossProfit  float64 `json:"l3m_gross_profit"`
	L3MMargin       float64 `json:"l3m_gp_margin"`
	L12MSales       float64 `json:"l12m_sales"`
	L12MGrossProfit float64 `json:"l12m_gross_profit"`
	L12MMargin      float64 `json:"l12m_gp_margin"`
	Segment         Segment `json:"rfm_segment"`
}

// Window selects the L3M or L12M figures of a record.
type Window string

const (
	L3M  Window = "l3m"
	L12M Window = "l12m"
)

// Sales returns the record's sales for w.
func (r Record) Sales(w Window) float64 {
	if w == L3M {
		return r.L3MSales
	}
	return r.L12MSales
}

// Margin returns the record's gross profit margin for w.
func (r Record) Margin(w Window) float64 {
	if w == L3M {
		return r.L3MMargin
	}
	return r.L12MMargin
}

// Rank returns the top n customers by L12M sales, highest first. Ties are
// broken by ascending ID. n <= 0 returns every customer.
func Rank(records []Record, n int) []Record {
	return RankBy(records, L12M, n)
}

// RankBy ranks by the sales of window w.
func RankBy(records []Record, w Window, n int) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Sales(w), out[j].Sales(w)
		if si != sj {
			return si > sj
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// TopShare summarises a ranked subset against the full customer base.
type TopShare struct {
	Count      int      `json:"count"`
	Sales      float64  `json:"sales"`
	PctOfTotal *float64 `json:"pct_of_total"`
	Average    *float64 `json:"average"`
}

// Share sums the w sales of top and relates them to totalSales.
func Share(top []Record, w Window, totalSales float64) TopShare {
	s := TopShare{Count: len(top)}
	for _, r := range top {
		s.Sales += r.Sales(w)
	}
	if totalSales != 0 {
		pct := s.Sales / totalSales * 100
		s.PctOfTotal = &pct
	}
	if len(top) > 0 {
		avg := s.Sales / float64(len(top))
		s.Average = &avg
	}
	return s
}
