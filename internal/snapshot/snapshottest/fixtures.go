// Package snapshottest builds in-memory snapshot trees for tests.
package snapshottest

import (
	"encoding/json"
	"fmt"
	"testing/fstest"

	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

// Products are the product keys written into every dashboard fixture.
var Products = []string{"cast_drums", "steel_shell_drums", "rotors", "calipers", "pads", "hubs"}

// FS returns a tree with complete snapshots for 25.11 and 25.12, a dashboard
// only snapshot for 25.10, and entries that are not periods.
func FS() fstest.MapFS {
	fsys := fstest.MapFS{
		"README.md":          {Data: []byte("not a period")},
		"archive/notes.txt":  {Data: []byte("ignored")},
		"25.09/customer.tmp": {Data: []byte("no dashboard document")},
	}
	for _, raw := range []string{"25.11", "25.12"} {
		key := period.MustParseKey(raw)
		Put(fsys, key, snapshot.DashboardFile, Dashboard(key))
		Put(fsys, key, snapshot.CustomersFile, Customers())
		Put(fsys, key, snapshot.BacklogFile, Backlog(key))
	}
	Put(fsys, period.MustParseKey("25.10"), snapshot.DashboardFile, Dashboard(period.MustParseKey("25.10")))
	return fsys
}

// Put marshals doc into fsys under key/name.
func Put(fsys fstest.MapFS, key period.Key, name string, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	fsys[key.String()+"/"+name] = &fstest.MapFile{Data: raw}
}

// Month builds a raw month record with a 40% gross margin.
func Month(key period.Key, revenue float64) snapshot.MonthRecord {
	return snapshot.MonthRecord{
		Period:             key.String(),
		Month:              key.ShortName(),
		Revenue:            f(revenue),
		GrossProfit:        f(revenue * 0.4),
		EBITDA:             f(revenue * 0.15),
		NetIncome:          f(revenue * 0.08),
		OperatingCashFlow:  f(revenue * 0.1),
		AccountsReceivable: f(revenue * 1.5),
		Inventory:          f(revenue * 2),
		AccountsPayable:    f(revenue * 0.6),
	}
}

// Revenue is the company revenue of month m (1..12) in the fixtures.
func Revenue(m int) float64 {
	return 1_000_000 + float64(m)*10_000
}

// Dashboard builds a dashboard document covering January through key.
func Dashboard(key period.Key) snapshot.DashboardDoc {
	doc := snapshot.DashboardDoc{
		Metadata: snapshot.DashboardMetadata{
			Period:         key.String(),
			ReportingMonth: key.Start().Format("January"),
			ReportingYear:  key.Year,
			GeneratedAt:    "2026-01-05 08:00:00",
			SourceFile:     "financials.xlsx",
		},
		Products: make(map[string]snapshot.ProductDoc, len(Products)),
	}
	for m := 1; m <= int(key.Month); m++ {
		k := key.YearStart().Add(m - 1)
		doc.MonthlySeries = append(doc.MonthlySeries, Month(k, Revenue(m)))
	}
	last := doc.MonthlySeries[len(doc.MonthlySeries)-1]
	doc.CurrentMonth = &last
	ytd := 0.0
	for m := 1; m <= int(key.Month); m++ {
		ytd += Revenue(m)
	}
	doc.YTDSummary = &snapshot.PublishedRollup{Months: int(key.Month), TotalRevenue: f(ytd)}
	for i, pk := range Products {
		share := float64(i+1) / 21
		p := snapshot.ProductDoc{Name: fmt.Sprintf("Product %d", i+1)}
		for _, rec := range doc.MonthlySeries {
			k, _ := period.ParseKey(rec.Period)
			p.MonthlySeries = append(p.MonthlySeries, Month(k, *rec.Revenue*share))
		}
		doc.Products[pk] = p
	}
	return doc
}

// Customers builds a customer document with RFM inputs on every record.
func Customers() snapshot.CustomerDoc {
	entries := []snapshot.CustomerEntry{
		customer("C001", "Acme Brakes", 330_000, 1_200_000, 42, 12, 25),
		customer("C002", "Bolt Fleet", 150_000, 400_000, 35, 40, 14),
		customer("C003", "Cobalt Parts", 60_000, 300_000, 55, 120, 7),
		customer("C004", "Delta Haulage", 10_000, 120_000, 30, 400, 2),
		customer("C005", "Echo Motors", 100_000, 300_000, 38, 20, 12),
	}
	var l3m, l12m float64
	for _, e := range entries {
		l3m += *e.L3MSales
		l12m += *e.L12MSales
	}
	return snapshot.CustomerDoc{
		Metadata: snapshot.CustomerMetadata{
			AnalysisPeriodL12M: "Jan 2025 - Dec 2025",
			TotalCustomers:     len(entries),
			GeneratedAt:        "2026-01-05 08:00:00",
			TotalL3MSales:      f(l3m),
			TotalL12MSales:     f(l12m),
		},
		RFMDistribution: map[string]int{"champions": 1},
		TopCustomers:    entries,
		Top15Customers:  entries,
	}
}

func customer(id, name string, l3m, l12m, margin float64, recency, frequency int) snapshot.CustomerEntry {
	return snapshot.CustomerEntry{
		CustomerID:      id,
		Customer:        name,
		L3MSales:        f(l3m),
		L3MGrossProfit:  l3m * margin / 100,
		L3MGPMargin:     margin,
		L12MSales:       f(l12m),
		L12MGrossProfit: l12m * margin / 100,
		L12MGPMargin:    margin,
		RFMSegment:      "Loyal Customers",
		RecencyDays:     &recency,
		Frequency:       &frequency,
	}
}

// Backlog builds a backlog document with orders aged 10, 50, 95 and 200 days.
func Backlog(key period.Key) snapshot.BacklogDoc {
	asOf := key.Add(1).Start().AddDate(0, 0, -1)
	ship := asOf.AddDate(0, 0, 20).Format("2006-01-02")
	return snapshot.BacklogDoc{
		Metadata: snapshot.BacklogMetadata{AnalysisDate: asOf.Format("2006-01-02"), GeneratedAt: "2026-01-05 08:00:00"},
		Summary:  &snapshot.PublishedBacklogSummary{TotalBacklogValue: 1000, TotalOrders: 4, AvgOrderValue: 250, AvgAgeDays: 88.75},
		Orders: []snapshot.OrderEntry{
			order("SO-1", "Acme Brakes", "Kim", "East", 100, 10, ship),
			order("SO-2", "Bolt Fleet", "Lee", "West", 200, 50, ""),
			order("SO-3", "Acme Brakes", "Kim", "East", 300, 95, ship),
			order("SO-4", "Cobalt Parts", "Lee", "South", 400, 200, ""),
		},
	}
}

func order(id, cust, rep, region string, value float64, age int, ship string) snapshot.OrderEntry {
	return snapshot.OrderEntry{
		OrderID:          id,
		Customer:         cust,
		SalesRep:         rep,
		Region:           region,
		OrderValue:       f(value),
		AgeDays:          &age,
		ExpectedShipDate: ship,
	}
}

func f(v float64) *float64 { return &v }
