package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/threshold"
)

func f(v float64) *float64 { return &v }

func TestAmountIsFixedPoint(t *testing.T) {
	if got := Amount(0.1 + 0.2); got != "0.30" {
		t.Fatalf("expected 0.30 got %s", got)
	}
	if got := AmountPtr(nil); got != "" {
		t.Fatalf("expected empty string for undefined amount, got %q", got)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	key := period.MustParseKey("25.12")
	report := analytics.Summary{
		Period: key,
		Comparisons: []analytics.Comparison{
			{Field: period.Revenue, Label: "Revenue", Current: f(1_120_000), Average: f(1_100_000), VariancePct: f(1.818181)},
		},
		Series: []analytics.MonthFigures{{Period: key, Revenue: 1_120_000}},
	}
	buf := &bytes.Buffer{}
	if err := WriteSummaryCSV(buf, report); err != nil {
		t.Fatalf("summary csv error: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if records[0][1] != "25.12" {
		t.Fatalf("unexpected period row %v", records[0])
	}
	if !strings.Contains(buf.String(), "Revenue,1120000.00,1100000.00,1.82,,false") {
		t.Fatalf("expected revenue comparison row, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "Dec 2025,1120000.00") {
		t.Fatalf("expected monthly series row")
	}
}

func TestWriteBacklogCSV(t *testing.T) {
	report := analytics.BacklogReport{Report: backlog.Report{
		Summary:      backlog.Summary{TotalValue: 1000, TotalOrders: 4, AvgOrderValue: 250, AvgAgeDays: 88.75},
		AgedPct:      f(50),
		AvgAgeStatus: threshold.Poor,
		Age:          backlog.Distribution{{Label: "0-30 days", Count: 1, Value: 100}},
		BySalesRep:   []backlog.Group{{Key: "Kim", OrderCount: 2, TotalValue: 400}},
	}}
	buf := &bytes.Buffer{}
	if err := WriteBacklogCSV(buf, report); err != nil {
		t.Fatalf("backlog csv error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Avg Age Days,88.75,poor", "Age,0-30 days,1,100.00", "Sales Rep,Kim,2,400.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestBuildHTMLOmitsMissingSections(t *testing.T) {
	html, err := BuildHTML(DashboardPayload{
		Period:  period.MustParseKey("25.12"),
		Backlog: &analytics.BacklogReport{Report: backlog.Report{Summary: backlog.Summary{TotalValue: 1000}}},
	})
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "December 2025") || !strings.Contains(out, "$1,000") {
		t.Fatalf("unexpected html %s", out)
	}
	if strings.Contains(out, "Top Customers") {
		t.Fatalf("customer section should be omitted")
	}
}

func TestPDFExporterRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(64 << 10); err != nil {
			t.Errorf("unexpected parse error: %v", err)
		}
		if _, _, err := r.FormFile("files"); err != nil {
			t.Errorf("expected html file: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	data, err := exporter.RenderDashboard(context.Background(), DashboardPayload{Period: period.MustParseKey("25.12")})
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
}

func TestPDFExporterRequiresEndpoint(t *testing.T) {
	if _, err := (&PDFExporter{}).RenderDashboard(context.Background(), DashboardPayload{}); !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestPDFExporterSurfacesRendererErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := (&PDFExporter{Endpoint: srv.URL + "/"}).RenderDashboard(context.Background(), DashboardPayload{Period: period.MustParseKey("25.12")})
	var rerr *RendererError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RendererError, got %v", err)
	}
	if rerr.Status != http.StatusBadGateway || rerr.Body != "chromium crashed" {
		t.Fatalf("unexpected renderer error %+v", rerr)
	}
}
