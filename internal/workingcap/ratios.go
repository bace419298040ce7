// Package workingcap derives day-count and net working capital ratios from
// monthly balances.
package workingcap

import (
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/threshold"
)

// DaysInMonth is the day-count convention for monthly ratios.
const DaysInMonth = 30

// Inputs are the balances and flows of a single month. AnnualRevenue is the
// denominator for NWC%, typically YTD revenue.
type Inputs struct {
	Revenue            float64
	GrossMarginPct     *float64
	AccountsReceivable float64
	Inventory          float64
	AccountsPayable    float64
	AnnualRevenue      float64
}

// InputsFor builds Inputs from a monthly record and a revenue base.
func InputsFor(rec period.Financials, annualRevenue float64) Inputs {
	return Inputs{
		Revenue:            rec.Revenue,
		GrossMarginPct:     rec.GrossMarginPct(),
		AccountsReceivable: rec.AccountsReceivable,
		Inventory:          rec.Inventory,
		AccountsPayable:    rec.AccountsPayable,
		AnnualRevenue:      annualRevenue,
	}
}

// Ratios holds derived working capital figures. Nil means the ratio is
// undefined because its denominator is zero.
type Ratios struct {
	COGSMonthly float64  `json:"cogs_monthly"`
	DSO         *float64 `json:"dso"`
	DIO         *float64 `json:"dio"`
	DPO         *float64 `json:"dpo"`
	CCC         *float64 `json:"ccc"`
	NWC         float64  `json:"nwc"`
	NWCPct      *float64 `json:"nwc_pct"`
}

// Compute derives all ratios for in.
func Compute(in Inputs) Ratios {
	cogs := in.Revenue
	if in.GrossMarginPct != nil {
		cogs = in.Revenue * (1 - *in.GrossMarginPct/100)
	}
	r := Ratios{
		COGSMonthly: cogs,
		DSO:         days(in.AccountsReceivable, in.Revenue),
		DIO:         days(in.Inventory, cogs),
		DPO:         days(in.AccountsPayable, cogs),
		NWC:         in.AccountsReceivable + in.Inventory - in.AccountsPayable,
	}
	if r.DSO != nil && r.DIO != nil && r.DPO != nil {
		ccc := *r.DSO + *r.DIO - *r.DPO
		r.CCC = &ccc
	}
	if in.AnnualRevenue != 0 {
		pct := r.NWC / in.AnnualRevenue * 100
		r.NWCPct = &pct
	}
	return r
}

// Statuses is the threshold band of every classified ratio.
type Statuses struct {
	DSO    threshold.Status `json:"dso"`
	DIO    threshold.Status `json:"dio"`
	DPO    threshold.Status `json:"dpo"`
	CCC    threshold.Status `json:"ccc"`
	NWCPct threshold.Status `json:"nwc_pct"`
}

// Classify applies table to each ratio. Undefined ratios are Unknown.
func (r Ratios) Classify(table threshold.Table) Statuses {
	return Statuses{
		DSO:    table.Classify(threshold.MetricDSO, r.DSO),
		DIO:    table.Classify(threshold.MetricDIO, r.DIO),
		DPO:    table.Classify(threshold.MetricDPO, r.DPO),
		CCC:    table.Classify(threshold.MetricCCC, r.CCC),
		NWCPct: table.Classify(threshold.MetricNWCPct, r.NWCPct),
	}
}

func days(balance, monthlyFlow float64) *float64 {
	if monthlyFlow == 0 {
		return nil
	}
	v := balance / (monthlyFlow / DaysInMonth)
	return &v
}
