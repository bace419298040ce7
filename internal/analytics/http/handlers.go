package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/export"
	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/view"
)

const requestTimeout = 2 * time.Second

// DashboardService defines the report contract used by the handler.
type DashboardService interface {
	Periods(ctx context.Context) ([]period.Key, error)
	PeriodCards(ctx context.Context, current period.Key) ([]analytics.PeriodCard, error)
	Latest(ctx context.Context) (period.Key, error)
	Summary(ctx context.Context, key period.Key) (analytics.Summary, error)
	Products(ctx context.Context, key period.Key) ([]analytics.ProductReport, error)
	WorkingCapital(ctx context.Context, key period.Key) (analytics.WorkingCapitalReport, error)
	Customers(ctx context.Context, key period.Key) (analytics.CustomerReport, error)
	Backlog(ctx context.Context, key period.Key) (analytics.BacklogReport, error)
	Historical(ctx context.Context, key period.Key) (analytics.Historical, error)
	Reconcile(ctx context.Context, key period.Key) (analytics.Reconciliation, error)
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler coordinates HTTP requests for the financial dashboard.
type Handler struct {
	logger        *slog.Logger
	service       DashboardService
	templates     *view.Engine
	charts        ui.Charts
	pdf           PDFService
	markdown      goldmark.Markdown
	defaultPeriod period.Key
	csvPool       sync.Pool
}

// NewHandler constructs the dashboard HTTP handler. A zero defaultPeriod
// falls back to the newest available period.
func NewHandler(logger *slog.Logger, service DashboardService, templates *view.Engine, charts ui.Charts, pdf PDFService, defaultPeriod period.Key) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:        logger,
		service:       service,
		templates:     templates,
		charts:        charts,
		pdf:           pdf,
		markdown:      goldmark.New(),
		defaultPeriod: defaultPeriod,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	tab := strings.TrimSpace(r.URL.Query().Get("tab"))
	if tab == "" {
		tab = analytics.SectionSummary
	}
	if !knownSection(tab) {
		http.Error(w, "Unknown tab", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	vm := ui.DashboardViewModel{Tab: tab, RenderedAt: time.Now()}
	key, err := h.resolvePeriod(ctx, r)
	switch {
	case errors.Is(err, period.ErrInvalidKey):
		http.Error(w, "Invalid period", http.StatusBadRequest)
		return
	case errors.Is(err, snapshot.ErrUnavailable):
		vm.Unavailable = h.guidance(noPeriodsGuide)
		h.render(w, r, vm)
		return
	case err != nil:
		h.handleServerError(w, r, "resolve period", err)
		return
	}
	vm.Period = key
	vm.Tabs = ui.Tabs(r.URL.Path, key, tab)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cards, err := h.service.PeriodCards(gctx, key)
		if err != nil {
			return err
		}
		vm.Periods = cards
		return nil
	})
	var unavailable bool
	g.Go(func() error {
		err := h.loadTab(gctx, &vm, tab, key)
		if errors.Is(err, snapshot.ErrUnavailable) {
			unavailable = true
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		h.handleServerError(w, r, "load dashboard", err)
		return
	}
	if unavailable {
		vm.Unavailable = h.guidance(sectionGuide(tab, key))
	}
	h.render(w, r, vm)
}

func (h *Handler) loadTab(ctx context.Context, vm *ui.DashboardViewModel, tab string, key period.Key) error {
	switch tab {
	case analytics.SectionSummary:
		report, err := h.service.Summary(ctx, key)
		if err != nil {
			return err
		}
		vm.Summary, err = ui.BuildSummary(report, h.charts)
		return err
	case analytics.SectionProducts:
		reports, err := h.service.Products(ctx, key)
		if err != nil {
			return err
		}
		vm.Products, err = ui.BuildProducts(reports, h.charts)
		return err
	case analytics.SectionNWC:
		report, err := h.service.WorkingCapital(ctx, key)
		if err != nil {
			return err
		}
		vm.NWC, err = ui.BuildNWC(report, h.charts)
		return err
	case analytics.SectionCustomers:
		report, err := h.service.Customers(ctx, key)
		if err != nil {
			return err
		}
		vm.Customers, err = ui.BuildCustomers(report, h.charts)
		return err
	case analytics.SectionBacklog:
		report, err := h.service.Backlog(ctx, key)
		if err != nil {
			return err
		}
		vm.Backlog, err = ui.BuildBacklog(report, h.charts)
		return err
	case analytics.SectionHistoricals:
		report, err := h.service.Historical(ctx, key)
		if err != nil {
			return err
		}
		vm.Historical, err = ui.BuildHistorical(report, h.charts)
		return err
	}
	return fmt.Errorf("unknown tab %q", tab)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, vm ui.DashboardViewModel) {
	data := view.TemplateData{
		Title:       "Financial Dashboard",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
		data.CSRFToken = sess.Get(shared.CSRFSessionKey)
		data.User = sess.User()
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.handleServerError(w, r, "render template", err)
	}
}

// resolvePeriod reads ?period=, then the configured default, then the newest
// available period.
func (h *Handler) resolvePeriod(ctx context.Context, r *http.Request) (period.Key, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("period")); raw != "" {
		return period.ParseKey(raw)
	}
	if !h.defaultPeriod.IsZero() {
		return h.defaultPeriod, nil
	}
	return h.service.Latest(ctx)
}

func (h *Handler) guidance(md string) template.HTML {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(md), &buf); err != nil {
		h.logger.Warn("render guidance", slog.Any("error", err))
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func (h *Handler) handleServerError(w http.ResponseWriter, r *http.Request, context string, err error) {
	h.logError(r, context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(r *http.Request, context string, err error) {
	h.logger.Error(context,
		slog.String("path", r.URL.Path),
		slog.String("query", r.URL.RawQuery),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err))
}

func knownSection(section string) bool {
	for _, s := range analytics.Sections {
		if s == section {
			return true
		}
	}
	return false
}
