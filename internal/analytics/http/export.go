package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/export"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key, err := h.resolvePeriod(ctx, r)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")
	report, err := h.section(ctx, key, section)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := writeSectionCSV(buf, report); err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	filename := fmt.Sprintf("findash-%s-%s.csv", section, key)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError(r, "stream csv", err)
	}
}

func writeSectionCSV(w io.Writer, report any) error {
	switch v := report.(type) {
	case analytics.Summary:
		return export.WriteSummaryCSV(w, v)
	case []analytics.ProductReport:
		return export.WriteProductsCSV(w, v)
	case analytics.WorkingCapitalReport:
		return export.WriteNWCCSV(w, v)
	case analytics.CustomerReport:
		return export.WriteCustomersCSV(w, v)
	case analytics.BacklogReport:
		return export.WriteBacklogCSV(w, v)
	case analytics.Reconciliation:
		return export.WriteReconcileCSV(w, v)
	}
	return export.ErrUnknownSection
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, r, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key, err := h.resolvePeriod(ctx, r)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	payload, err := h.loadPayload(ctx, key)
	if err != nil {
		h.handleServerError(w, r, "load pdf payload", err)
		return
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.handleServerError(w, r, "render pdf", err)
		return
	}

	filename := fmt.Sprintf("findash-%s.pdf", key)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError(r, "stream pdf", err)
	}
}

// loadPayload gathers the printable sections in parallel. Missing sections are
// left nil.
func (h *Handler) loadPayload(ctx context.Context, key period.Key) (export.DashboardPayload, error) {
	payload := export.DashboardPayload{Period: key}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := h.service.Summary(ctx, key)
		if err == nil {
			payload.Summary = &v
		}
		return ignoreUnavailable(err)
	})
	g.Go(func() error {
		v, err := h.service.WorkingCapital(ctx, key)
		if err == nil {
			payload.WorkingCapital = &v
		}
		return ignoreUnavailable(err)
	})
	g.Go(func() error {
		v, err := h.service.Customers(ctx, key)
		if err == nil {
			payload.Customers = &v
		}
		return ignoreUnavailable(err)
	})
	g.Go(func() error {
		v, err := h.service.Backlog(ctx, key)
		if err == nil {
			payload.Backlog = &v
		}
		return ignoreUnavailable(err)
	})
	if err := g.Wait(); err != nil {
		return export.DashboardPayload{}, err
	}
	return payload, nil
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, period.ErrInvalidKey):
		http.Error(w, "Invalid period", http.StatusBadRequest)
	case errors.Is(err, errUnknownSection), errors.Is(err, export.ErrUnknownSection):
		http.Error(w, "Unknown section", http.StatusNotFound)
	case errors.Is(err, snapshot.ErrUnavailable):
		http.Error(w, "Data not available for this period", http.StatusNotFound)
	default:
		h.handleServerError(w, r, "export", err)
	}
}

func ignoreUnavailable(err error) error {
	if errors.Is(err, snapshot.ErrUnavailable) {
		return nil
	}
	return err
}
