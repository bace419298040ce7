package period

// Financials is one month of company or product-line facts.
type Financials struct {
	Period             Key
	Revenue            float64
	GrossProfit        float64
	EBITDA             float64
	NetIncome          float64
	OperatingCashFlow  float64
	AccountsReceivable float64
	Inventory          float64
	AccountsPayable    float64
}

// GrossMarginPct is gross profit over revenue in percent, nil when revenue is zero.
func (f Financials) GrossMarginPct() *float64 {
	return ratioPct(f.GrossProfit, f.Revenue)
}

// EBITDAMarginPct is EBITDA over revenue in percent, nil when revenue is zero.
func (f Financials) EBITDAMarginPct() *float64 {
	return ratioPct(f.EBITDA, f.Revenue)
}

// NWC is receivables plus inventory less payables.
func (f Financials) NWC() float64 {
	return f.AccountsReceivable + f.Inventory - f.AccountsPayable
}

// Kind controls how a field behaves in rollups and comparisons.
type Kind int

const (
	// Flow fields accumulate over time and are summed.
	Flow Kind = iota
	// Balance fields are point-in-time amounts and are averaged.
	Balance
	// Ratio fields are percentages; they are averaged and compared in points.
	Ratio
)

// Field names a value carried by Financials.
type Field string

const (
	Revenue            Field = "revenue"
	GrossProfit        Field = "gross_profit"
	EBITDA             Field = "ebitda"
	NetIncome          Field = "net_income"
	OperatingCashFlow  Field = "operating_cash_flow"
	AccountsReceivable Field = "accounts_receivable"
	Inventory          Field = "inventory"
	AccountsPayable    Field = "accounts_payable"
	NWC                Field = "nwc"
	GrossMarginPct     Field = "gross_margin_pct"
	EBITDAMarginPct    Field = "ebitda_margin_pct"
)

// Fields lists every field in display order.
var Fields = []Field{
	Revenue, GrossProfit, EBITDA, NetIncome, OperatingCashFlow,
	AccountsReceivable, Inventory, AccountsPayable, NWC,
	GrossMarginPct, EBITDAMarginPct,
}

// Kind reports the rollup behaviour of f.
func (f Field) Kind() Kind {
	switch f {
	case AccountsReceivable, Inventory, AccountsPayable, NWC:
		return Balance
	case GrossMarginPct, EBITDAMarginPct:
		return Ratio
	default:
		return Flow
	}
}

// Label is the human readable field name.
func (f Field) Label() string {
	switch f {
	case Revenue:
		return "Revenue"
	case GrossProfit:
		return "Gross Profit"
	case EBITDA:
		return "EBITDA"
	case NetIncome:
		return "Net Income"
	case OperatingCashFlow:
		return "Operating CF"
	case AccountsReceivable:
		return "Accounts Receivable"
	case Inventory:
		return "Inventory"
	case AccountsPayable:
		return "Accounts Payable"
	case NWC:
		return "NWC"
	case GrossMarginPct:
		return "Gross Margin %"
	case EBITDAMarginPct:
		return "EBITDA Margin %"
	default:
		return string(f)
	}
}

// Value extracts f from rec. Ratio fields are nil when revenue is zero.
func (f Field) Value(rec Financials) *float64 {
	var v float64
	switch f {
	case Revenue:
		v = rec.Revenue
	case GrossProfit:
		v = rec.GrossProfit
	case EBITDA:
		v = rec.EBITDA
	case NetIncome:
		v = rec.NetIncome
	case OperatingCashFlow:
		v = rec.OperatingCashFlow
	case AccountsReceivable:
		v = rec.AccountsReceivable
	case Inventory:
		v = rec.Inventory
	case AccountsPayable:
		v = rec.AccountsPayable
	case NWC:
		v = rec.NWC()
	case GrossMarginPct:
		return rec.GrossMarginPct()
	case EBITDAMarginPct:
		return rec.EBITDAMarginPct()
	default:
		return nil
	}
	return &v
}

func ratioPct(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	v := numerator / denominator * 100
	return &v
}
