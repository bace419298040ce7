package analytics

import (
	"context"
	"sort"

	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

// ProductKeys are the product lines in display order.
var ProductKeys = []string{"cast_drums", "steel_shell_drums", "rotors", "calipers", "pads", "hubs"}

var productNames = map[string]string{
	"cast_drums":        "Cast Drums",
	"steel_shell_drums": "Steel Shell Drums",
	"rotors":            "Rotors",
	"calipers":          "Calipers",
	"pads":              "Pads",
	"hubs":              "Hubs",
}

// ProductFields are the comparisons shown per product line.
var ProductFields = []period.Field{
	period.Revenue,
	period.GrossProfit,
	period.GrossMarginPct,
	period.EBITDA,
	period.EBITDAMarginPct,
}

// ProductReport is one product line scoped like the summary tab.
type ProductReport struct {
	Key            string         `json:"key"`
	Name           string         `json:"name"`
	Current        *MonthFigures  `json:"current"`
	Comparisons    []Comparison   `json:"comparisons"`
	Series         []MonthFigures `json:"series"`
	ShareOfRevenue *float64       `json:"share_of_revenue"`
}

// Products derives the product tab for key.
func (s *Service) Products(ctx context.Context, key period.Key) ([]ProductReport, error) {
	return fetch(ctx, s, SectionProducts, key, func(ctx context.Context) ([]ProductReport, error) {
		dash, err := s.source.Dashboard(ctx, key)
		if err != nil {
			return nil, err
		}
		return s.buildProducts(dash), nil
	})
}

func (s *Service) buildProducts(dash *snapshot.Dashboard) []ProductReport {
	var companyRevenue float64
	if n := len(dash.Series); n > 0 {
		companyRevenue = dash.Series[n-1].Revenue
	}
	out := make([]ProductReport, 0, len(dash.Products))
	for _, p := range orderProducts(dash.Products) {
		report := ProductReport{
			Key:         p.Key,
			Name:        productName(p),
			Comparisons: comparisons(p.Series, s.policy.Window, ProductFields...),
			Series:      figuresOfSeries(p.Series),
		}
		if n := len(p.Series); n > 0 {
			current := figuresOf(p.Series[n-1])
			report.Current = &current
			if companyRevenue != 0 {
				report.ShareOfRevenue = ptr(current.Revenue / companyRevenue * 100)
			}
		}
		out = append(out, report)
	}
	return out
}

// orderProducts places known product lines first in display order, then any
// other keys alphabetically.
func orderProducts(products []snapshot.Product) []snapshot.Product {
	rank := make(map[string]int, len(ProductKeys))
	for i, k := range ProductKeys {
		rank[k] = i
	}
	out := append([]snapshot.Product(nil), products...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iKnown := rank[out[i].Key]
		rj, jKnown := rank[out[j].Key]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i].Key < out[j].Key
		}
	})
	return out
}

func productName(p snapshot.Product) string {
	if name, ok := productNames[p.Key]; ok {
		return name
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Key
}
