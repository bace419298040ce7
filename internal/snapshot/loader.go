// Package snapshot reads the per-period JSON artifacts produced by the
// dashboard generation pipeline and converts them into derivation inputs.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/customers"
	"github.com/durabrake/findash/internal/period"
)

// ErrUnavailable reports that a period document does not exist.
var ErrUnavailable = errors.New("snapshot: data not available")

// ValidationError reports a document that exists but is structurally invalid.
type ValidationError struct {
	Period   period.Key
	Document string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("snapshot %s/%s: invalid document: %v", e.Period, e.Document, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Fields lists the offending fields when validation failed on struct tags.
func (e *ValidationError) Fields() []string {
	var verrs validator.ValidationErrors
	if !errors.As(e.Err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Namespace())
	}
	return out
}

// Loader reads snapshots from a directory tree laid out as <YY.MM>/<file>.
type Loader struct {
	fsys     fs.FS
	validate *validator.Validate
}

// customTags are the struct tags documents use beyond the validator built-ins.
var customTags = map[string]validator.Func{
	"period": func(fl validator.FieldLevel) bool {
		_, err := period.ParseKey(fl.Field().String())
		return err == nil
	},
}

func newValidator(tags map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New()
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return v, nil
}

// NewLoader constructs a Loader over fsys. It panics if the document
// validators cannot be registered.
func NewLoader(fsys fs.FS) *Loader {
	v, err := newValidator(customTags)
	if err != nil {
		panic("snapshot: " + err.Error())
	}
	return &Loader{fsys: fsys, validate: v}
}

// NewDirLoader constructs a Loader rooted at dir on disk.
func NewDirLoader(dir string) *Loader {
	return NewLoader(os.DirFS(dir))
}

// Periods lists periods that have a dashboard document, newest first. A
// missing root yields an empty list.
func (l *Loader) Periods(ctx context.Context) ([]period.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: list periods: %w", err)
	}
	var keys []period.Key
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		key, err := period.ParseKey(entry.Name())
		if err != nil {
			continue
		}
		if _, err := fs.Stat(l.fsys, path.Join(entry.Name(), DashboardFile)); err != nil {
			continue
		}
		keys = append(keys, key)
	}
	period.SortNewestFirst(keys)
	return keys, nil
}

// Dashboard is a decoded dashboard document with its derived series.
type Dashboard struct {
	Period   period.Key
	Doc      DashboardDoc
	Series   []period.Financials
	Products []Product
}

// Product is one product line's monthly series.
type Product struct {
	Key    string
	Name   string
	Series []period.Financials
}

// Dashboard loads dashboard_data.json for key.
func (l *Loader) Dashboard(ctx context.Context, key period.Key) (*Dashboard, error) {
	var doc DashboardDoc
	if err := l.read(ctx, key, DashboardFile, &doc); err != nil {
		return nil, err
	}
	year := doc.Metadata.ReportingYear
	series, err := toSeries(doc.MonthlySeries, year)
	if err != nil {
		return nil, &ValidationError{Period: key, Document: DashboardFile, Err: err}
	}
	out := &Dashboard{Period: key, Doc: doc, Series: period.Until(series, key)}
	for _, pk := range sortedKeys(doc.Products) {
		p := doc.Products[pk]
		ps, err := toSeries(p.MonthlySeries, year)
		if err != nil {
			return nil, &ValidationError{Period: key, Document: DashboardFile, Err: fmt.Errorf("product %s: %w", pk, err)}
		}
		out.Products = append(out.Products, Product{Key: pk, Name: p.Name, Series: period.Until(ps, key)})
	}
	return out, nil
}

// Customers is a decoded customer document.
type Customers struct {
	Period         period.Key
	Doc            CustomerDoc
	Records        []customers.Record
	Scorable       bool
	TotalL3MSales  float64
	TotalL12MSales float64
}

// Customers loads customer_dashboard_data.json for key. Scorable is true when
// every record carries recency and frequency so segments can be re-derived.
func (l *Loader) Customers(ctx context.Context, key period.Key) (*Customers, error) {
	var doc CustomerDoc
	if err := l.read(ctx, key, CustomersFile, &doc); err != nil {
		return nil, err
	}
	out := &Customers{
		Period:         key,
		Doc:            doc,
		Records:        make([]customers.Record, 0, len(doc.TopCustomers)),
		Scorable:       len(doc.TopCustomers) > 0,
		TotalL3MSales:  *doc.Metadata.TotalL3MSales,
		TotalL12MSales: *doc.Metadata.TotalL12MSales,
	}
	for _, entry := range doc.TopCustomers {
		rec := entry.Record()
		if entry.RecencyDays == nil || entry.Frequency == nil {
			out.Scorable = false
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// Record converts an entry into a scorer record. Monetary value defaults to
// L12M sales and the ID to the customer name.
func (e CustomerEntry) Record() customers.Record {
	rec := customers.Record{
		ID:              e.CustomerID,
		Name:            e.Customer,
		L3MSales:        *e.L3MSales,
		L3MGrossProfit:  e.L3MGrossProfit,
		L3MMargin:       e.L3MGPMargin,
		L12MSales:       *e.L12MSales,
		L12MGrossProfit: e.L12MGrossProfit,
		L12MMargin:      e.L12MGPMargin,
		Monetary:        *e.L12MSales,
		Segment:         customers.Segment(e.RFMSegment),
	}
	if rec.ID == "" {
		rec.ID = e.Customer
	}
	if e.RecencyDays != nil {
		rec.RecencyDays = *e.RecencyDays
	}
	if e.Frequency != nil {
		rec.Frequency = *e.Frequency
	}
	if e.Monetary != nil {
		rec.Monetary = *e.Monetary
	}
	return rec
}

// Backlog is a decoded backlog document.
type Backlog struct {
	Period period.Key
	Doc    BacklogDoc
	AsOf   time.Time
	Orders []backlog.Order
}

// Backlog loads backlog_dashboard_data.json for key.
func (l *Loader) Backlog(ctx context.Context, key period.Key) (*Backlog, error) {
	var doc BacklogDoc
	if err := l.read(ctx, key, BacklogFile, &doc); err != nil {
		return nil, err
	}
	asOf, err := time.Parse(time.DateOnly, doc.Metadata.AnalysisDate)
	if err != nil {
		return nil, &ValidationError{Period: key, Document: BacklogFile, Err: err}
	}
	out := &Backlog{Period: key, Doc: doc, AsOf: asOf, Orders: make([]backlog.Order, 0, len(doc.Orders))}
	for _, entry := range doc.Orders {
		order := backlog.Order{
			ID:       entry.OrderID,
			Customer: entry.Customer,
			SalesRep: entry.SalesRep,
			Region:   entry.Region,
			Value:    *entry.OrderValue,
			AgeDays:  *entry.AgeDays,
		}
		if entry.ExpectedShipDate != "" {
			ship, err := time.Parse(time.DateOnly, entry.ExpectedShipDate)
			if err != nil {
				return nil, &ValidationError{Period: key, Document: BacklogFile, Err: err}
			}
			order.ExpectedShip = &ship
		}
		out.Orders = append(out.Orders, order)
	}
	return out, nil
}

func (l *Loader) read(ctx context.Context, key period.Key, name string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := fs.ReadFile(l.fsys, path.Join(key.String(), name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrUnavailable, key, name)
		}
		return fmt.Errorf("snapshot: read %s/%s: %w", key, name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ValidationError{Period: key, Document: name, Err: err}
	}
	if err := l.validate.Struct(dst); err != nil {
		return &ValidationError{Period: key, Document: name, Err: err}
	}
	return nil
}

var monthLayouts = []string{"2006-01", "Jan 2006", "January 2006", "01/2006", "2006-01-02"}

func toSeries(records []MonthRecord, year int) ([]period.Financials, error) {
	out := make([]period.Financials, 0, len(records))
	seen := make(map[period.Key]bool, len(records))
	for i, rec := range records {
		key, err := rec.key(year)
		if err != nil {
			return nil, fmt.Errorf("monthly_series[%d]: %w", i, err)
		}
		if seen[key] {
			return nil, fmt.Errorf("monthly_series[%d]: duplicate period %s", i, key)
		}
		seen[key] = true
		out = append(out, rec.Financials(key))
	}
	period.Sort(out)
	return out, nil
}

// Financials converts the record, which must have passed validation.
func (r MonthRecord) Financials(key period.Key) period.Financials {
	return period.Financials{
		Period:             key,
		Revenue:            *r.Revenue,
		GrossProfit:        *r.GrossProfit,
		EBITDA:             *r.EBITDA,
		NetIncome:          *r.NetIncome,
		OperatingCashFlow:  *r.OperatingCashFlow,
		AccountsReceivable: *r.AccountsReceivable,
		Inventory:          *r.Inventory,
		AccountsPayable:    *r.AccountsPayable,
	}
}

// key resolves the record's period. Bare month names ("Jan") take the
// reporting year.
func (r MonthRecord) key(year int) (period.Key, error) {
	if r.Period != "" {
		return period.ParseKey(r.Period)
	}
	label := strings.TrimSpace(r.Month)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return period.KeyOf(t), nil
		}
	}
	for _, layout := range []string{"Jan", "January"} {
		if t, err := time.Parse(layout, label); err == nil {
			return period.Key{Year: year, Month: t.Month()}, nil
		}
	}
	if key, err := period.ParseKey(label); err == nil {
		return key, nil
	}
	return period.Key{}, fmt.Errorf("unrecognised month %q", r.Month)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
