package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/period"
)

// DashboardPayload aggregates the sections destined for PDF rendering. Nil
// sections are omitted.
type DashboardPayload struct {
	Period         period.Key
	Summary        *analytics.Summary
	WorkingCapital *analytics.WorkingCapitalReport
	Customers      *analytics.CustomerReport
	Backlog        *analytics.BacklogReport
}

const convertPath = "/forms/chromium/convert/html"

// ErrNoEndpoint is returned when the exporter has no Gotenberg URL.
var ErrNoEndpoint = errors.New("export: gotenberg endpoint required")

// RendererError reports a non-2xx answer from Gotenberg.
type RendererError struct {
	Status int
	Body   string
}

func (e *RendererError) Error() string {
	return fmt.Sprintf("export: gotenberg returned %d: %s", e.Status, e.Body)
}

// PDFExporter prints the dashboard through Gotenberg's Chromium route.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderDashboard builds the printable HTML for payload and returns the PDF.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil || strings.TrimSpace(p.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	doc, err := BuildHTML(payload)
	if err != nil {
		return nil, err
	}
	req, err := p.convertRequest(ctx, doc)
	if err != nil {
		return nil, err
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export: call gotenberg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &RendererError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return io.ReadAll(resp.Body)
}

// convertRequest packs doc as index.html in a multipart form.
func (p *PDFExporter) convertRequest(ctx context.Context, doc []byte) (*http.Request, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	file, err := form.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(doc); err != nil {
		return nil, err
	}
	for field, value := range map[string]string{"waitDelay": "500ms", "printBackground": "true"} {
		if err := form.WriteField(field, value); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	url := strings.TrimRight(p.Endpoint, "/") + convertPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("export: build gotenberg request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req, nil
}

var pdfTemplate = template.Must(template.New("pdf").Funcs(ui.FuncMap()).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:24px;color:#0f172a}h1{font-size:20px}h2{font-size:16px;margin-top:24px}
table{width:100%;border-collapse:collapse;margin-bottom:16px}th,td{border:1px solid #ddd;padding:6px;text-align:right}
th{text-align:left;background:#f5f5f5}td.label{text-align:left}
.status-good{color:#15803d}.status-warning{color:#b45309}.status-poor{color:#b91c1c}
</style></head><body>
<h1>Financial Dashboard - {{.Period.LongName}}</h1>
{{with .Summary}}<h2>Summary</h2>
<table><thead><tr><th>Metric</th><th>Current</th><th>L{{.Window}}M Avg</th><th>Variance</th></tr></thead><tbody>
{{range .Comparisons}}<tr><td class="label">{{.Label}}</td>{{if .Ratio}}<td>{{percent .Current}}</td><td>{{percent .Average}}</td><td>{{signedPoints .VariancePts}}</td>{{else}}<td>{{moneyPtr .Current}}</td><td>{{moneyPtr .Average}}</td><td>{{if .Suppressed}}N/A{{else}}{{signedPercent .VariancePct}}{{end}}</td>{{end}}</tr>
{{end}}</tbody></table>{{end}}
{{with .WorkingCapital}}<h2>Working Capital</h2>
<table><tbody>
<tr><td class="label">DSO</td><td class="{{statusClass .Statuses.DSO}}">{{days .Ratios.DSO}}</td></tr>
<tr><td class="label">DIO</td><td class="{{statusClass .Statuses.DIO}}">{{days .Ratios.DIO}}</td></tr>
<tr><td class="label">DPO</td><td class="{{statusClass .Statuses.DPO}}">{{days .Ratios.DPO}}</td></tr>
<tr><td class="label">CCC</td><td class="{{statusClass .Statuses.CCC}}">{{days .Ratios.CCC}}</td></tr>
<tr><td class="label">NWC % of Revenue</td><td class="{{statusClass .Statuses.NWCPct}}">{{percent .Ratios.NWCPct}}</td></tr>
</tbody></table>{{end}}
{{with .Customers}}<h2>Top Customers</h2>
<table><thead><tr><th>#</th><th>Customer</th><th>L12M Sales</th><th>GP Margin</th><th>Trend</th><th>Segment</th></tr></thead><tbody>
{{range .Top}}<tr><td>{{.Rank}}</td><td class="label">{{.Record.Name}}</td><td>{{money .Record.L12MSales}}</td><td>{{printf "%.1f%%" .Record.L12MMargin}}</td><td>{{signedPercent .Trend.ChangePct}}</td><td class="label">{{.Record.Segment}}</td></tr>
{{end}}</tbody></table>{{end}}
{{with .Backlog}}<h2>Backlog</h2>
<table><tbody>
<tr><td class="label">Total Backlog</td><td>{{money .Summary.TotalValue}}</td></tr>
<tr><td class="label">Open Orders</td><td>{{count .Summary.TotalOrders}}</td></tr>
<tr><td class="label">Average Age</td><td class="{{statusClass .AvgAgeStatus}}">{{printf "%.1f" .Summary.AvgAgeDays}} days</td></tr>
<tr><td class="label">Orders over 90 days</td><td class="{{statusClass .AgedPctStatus}}">{{percent .AgedPct}}</td></tr>
</tbody></table>{{end}}
</body></html>`))

// BuildHTML renders the printable dashboard document.
func BuildHTML(payload DashboardPayload) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, payload); err != nil {
		return nil, fmt.Errorf("export: render pdf html: %w", err)
	}
	return buf.Bytes(), nil
}
