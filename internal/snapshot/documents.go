package snapshot

// The document types mirror the JSON artifacts written by the generation
// pipeline. Raw records carry pointer fields so a missing key fails
// validation instead of decoding as zero.

// File names inside a period directory.
const (
	DashboardFile = "dashboard_data.json"
	CustomersFile = "customer_dashboard_data.json"
	BacklogFile   = "backlog_dashboard_data.json"
)

// DashboardDoc is dashboard_data.json.
type DashboardDoc struct {
	Metadata      DashboardMetadata              `json:"metadata" validate:"required"`
	CurrentMonth  *MonthRecord                   `json:"current_month"`
	L3MComparison map[string]PublishedComparison `json:"l3m_comparison"`
	MonthlySeries []MonthRecord                  `json:"monthly_series" validate:"required,min=1,dive"`
	RollingL3M    []PublishedRolling             `json:"rolling_l3m"`
	YTDSummary    *PublishedRollup               `json:"ytd_summary"`
	Q4Summary     *PublishedRollup               `json:"q4_summary"`
	Products      map[string]ProductDoc          `json:"products" validate:"omitempty,dive"`
}

// DashboardMetadata describes the reporting month.
type DashboardMetadata struct {
	Period         string `json:"period" validate:"omitempty,period"`
	ReportingMonth string `json:"reporting_month" validate:"required"`
	ReportingYear  int    `json:"reporting_year" validate:"required,gte=2000"`
	GeneratedAt    string `json:"generated_at"`
	SourceFile     string `json:"source_file"`
}

// MonthRecord is one month of facts. Period takes precedence over Month when
// both are present.
type MonthRecord struct {
	Period             string   `json:"period" validate:"omitempty,period"`
	Month              string   `json:"month" validate:"required_without=Period"`
	Revenue            *float64 `json:"revenue" validate:"required"`
	GrossProfit        *float64 `json:"gross_profit" validate:"required"`
	EBITDA             *float64 `json:"ebitda" validate:"required"`
	NetIncome          *float64 `json:"net_income" validate:"required"`
	OperatingCashFlow  *float64 `json:"operating_cash_flow" validate:"required"`
	AccountsReceivable *float64 `json:"accounts_receivable" validate:"required"`
	Inventory          *float64 `json:"inventory" validate:"required"`
	AccountsPayable    *float64 `json:"accounts_payable" validate:"required"`
	NWC                *float64 `json:"nwc,omitempty"`
	GrossMarginPct     *float64 `json:"gross_margin_pct,omitempty"`
	EBITDAMarginPct    *float64 `json:"ebitda_margin_pct,omitempty"`
}

// PublishedComparison is a precomputed L3M comparison entry.
type PublishedComparison struct {
	Current     *float64 `json:"current"`
	L3MAvg      *float64 `json:"l3m_avg"`
	VariancePct *float64 `json:"variance_pct"`
	VariancePts *float64 `json:"variance_pts"`
}

// PublishedRolling is a precomputed rolling variance point.
type PublishedRolling struct {
	Month           string   `json:"month"`
	RevenueVsL3MPct *float64 `json:"revenue_vs_l3m_pct"`
}

// PublishedRollup is a precomputed YTD or quarter summary.
type PublishedRollup struct {
	Months             int      `json:"months"`
	TotalRevenue       *float64 `json:"total_revenue"`
	TotalGrossProfit   *float64 `json:"total_gross_profit"`
	TotalEBITDA        *float64 `json:"total_ebitda"`
	TotalNetIncome     *float64 `json:"total_net_income"`
	TotalOperatingCF   *float64 `json:"total_operating_cf"`
	AvgGrossMarginPct  *float64 `json:"avg_gross_margin_pct"`
	AvgEBITDAMarginPct *float64 `json:"avg_ebitda_margin_pct"`
	AvgNWC             *float64 `json:"avg_nwc"`
}

// ProductDoc is one product line inside dashboard_data.json.
type ProductDoc struct {
	Name          string        `json:"name"`
	CurrentMonth  *MonthRecord  `json:"current_month"`
	MonthlySeries []MonthRecord `json:"monthly_series" validate:"required,min=1,dive"`
}

// CustomerDoc is customer_dashboard_data.json.
type CustomerDoc struct {
	Metadata        CustomerMetadata   `json:"metadata" validate:"required"`
	RFMDistribution map[string]int     `json:"rfm_distribution"`
	RFMSegments     []PublishedSegment `json:"rfm_segments"`
	Top15Customers  []CustomerEntry    `json:"top_15_customers" validate:"omitempty,dive"`
	TopCustomers    []CustomerEntry    `json:"top_customers" validate:"required,dive"`
}

// CustomerMetadata describes the analysis window.
type CustomerMetadata struct {
	AnalysisPeriodL12M string   `json:"analysis_period_l12m"`
	TotalCustomers     int      `json:"total_customers" validate:"gte=0"`
	GeneratedAt        string   `json:"generated_at"`
	TotalL3MSales      *float64 `json:"total_l3m_sales" validate:"required"`
	TotalL12MSales     *float64 `json:"total_l12m_sales" validate:"required"`
}

// PublishedSegment is a precomputed segment aggregate.
type PublishedSegment struct {
	Segment               string  `json:"segment"`
	CustomerCount         int     `json:"customer_count"`
	TotalRevenue          float64 `json:"total_revenue"`
	AvgRevenuePerCustomer float64 `json:"avg_revenue_per_customer"`
	AvgRecencyDays        float64 `json:"avg_recency_days"`
	AvgFrequency          float64 `json:"avg_frequency"`
}

// CustomerEntry is one customer row.
type CustomerEntry struct {
	CustomerID      string   `json:"customer_id"`
	Customer        string   `json:"customer" validate:"required"`
	L3MSales        *float64 `json:"l3m_sales" validate:"required"`
	L3MGrossProfit  float64  `json:"l3m_gross_profit"`
	L3MGPMargin     float64  `json:"l3m_gp_margin"`
	L3MPctOfTotal   float64  `json:"l3m_pct_of_total"`
	L12MSales       *float64 `json:"l12m_sales" validate:"required"`
	L12MGrossProfit float64  `json:"l12m_gross_profit"`
	L12MGPMargin    float64  `json:"l12m_gp_margin"`
	L12MPctOfTotal  float64  `json:"l12m_pct_of_total"`
	RFMSegment      string   `json:"rfm_segment"`
	RecencyDays     *int     `json:"recency_days" validate:"omitempty,gte=0"`
	Frequency       *int     `json:"frequency" validate:"omitempty,gte=0"`
	Monetary        *float64 `json:"monetary"`
}

// BacklogDoc is backlog_dashboard_data.json.
type BacklogDoc struct {
	Metadata             BacklogMetadata            `json:"metadata" validate:"required"`
	Summary              *PublishedBacklogSummary   `json:"summary"`
	AgeDistribution      map[string]PublishedBucket `json:"age_distribution"`
	ShipDateDistribution PublishedShipDistribution  `json:"ship_date_distribution"`
	TopCustomers         []PublishedGroup           `json:"top_customers"`
	BySalesRep           []PublishedGroup           `json:"by_sales_rep"`
	ByRegion             []PublishedGroup           `json:"by_region"`
	Orders               []OrderEntry               `json:"orders" validate:"required,dive"`
}

// BacklogMetadata describes the analysis date.
type BacklogMetadata struct {
	AnalysisDate string `json:"analysis_date" validate:"required,datetime=2006-01-02"`
	GeneratedAt  string `json:"generated_at"`
}

// PublishedBacklogSummary is the precomputed summary block.
type PublishedBacklogSummary struct {
	TotalBacklogValue float64 `json:"total_backlog_value"`
	TotalOrders       int     `json:"total_orders"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	AvgAgeDays        float64 `json:"avg_age_days"`
}

// PublishedBucket is one precomputed age bucket.
type PublishedBucket struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// PublishedShipDistribution is the precomputed ship window block.
type PublishedShipDistribution struct {
	OrderCount map[string]int     `json:"order_count"`
	TotalValue map[string]float64 `json:"total_value"`
}

// PublishedGroup is a precomputed rollup row. Only one of the key fields is set.
type PublishedGroup struct {
	Customer   string  `json:"customer,omitempty"`
	SalesRep   string  `json:"sales_rep,omitempty"`
	Region     string  `json:"region,omitempty"`
	OrderCount int     `json:"order_count"`
	TotalValue float64 `json:"total_value"`
}

// OrderEntry is one open order.
type OrderEntry struct {
	OrderID          string   `json:"order_id" validate:"required"`
	Customer         string   `json:"customer" validate:"required"`
	SalesRep         string   `json:"sales_rep"`
	Region           string   `json:"region"`
	OrderValue       *float64 `json:"order_value" validate:"required"`
	AgeDays          *int     `json:"age_days" validate:"required,gte=0"`
	ExpectedShipDate string   `json:"expected_ship_date" validate:"omitempty,datetime=2006-01-02"`
}
