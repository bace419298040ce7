package analytichttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/platform/httpx"
	"github.com/durabrake/findash/internal/snapshot"
)

// sectionReconcile is served by the API and CSV export but has no tab.
const sectionReconcile = "reconcile"

func (h *Handler) handleAPIPeriods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	latest, err := h.service.Latest(ctx)
	if err != nil && !errors.Is(err, snapshot.ErrUnavailable) {
		h.logError(r, "api periods", err)
		httpx.RespondError(w, err)
		return
	}
	cards, err := h.service.PeriodCards(ctx, latest)
	if err != nil {
		h.logError(r, "api periods", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": cards})
}

func (h *Handler) handleAPISection(w http.ResponseWriter, r *http.Request) {
	key, err := period.ParseKey(chi.URLParam(r, "period"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Period", err.Error())
		return
	}
	section := chi.URLParam(r, "section")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.section(ctx, key, section)
	switch {
	case errors.Is(err, errUnknownSection):
		httpx.Problem(w, http.StatusNotFound, "Unknown Section", fmt.Sprintf("section %q does not exist", section))
	case errors.Is(err, snapshot.ErrUnavailable):
		httpx.Problem(w, http.StatusNotFound, "Not Available", fmt.Sprintf("%s data is not available for %s", section, key))
	case err != nil:
		h.logError(r, "api section", err)
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusOK, report)
	}
}

var errUnknownSection = errors.New("analytics: unknown section")

func (h *Handler) section(ctx context.Context, key period.Key, section string) (any, error) {
	switch section {
	case analytics.SectionSummary:
		return h.service.Summary(ctx, key)
	case analytics.SectionProducts:
		return h.service.Products(ctx, key)
	case analytics.SectionNWC:
		return h.service.WorkingCapital(ctx, key)
	case analytics.SectionCustomers:
		return h.service.Customers(ctx, key)
	case analytics.SectionBacklog:
		return h.service.Backlog(ctx, key)
	case analytics.SectionHistoricals:
		return h.service.Historical(ctx, key)
	case sectionReconcile:
		return h.service.Reconcile(ctx, key)
	}
	return nil, errUnknownSection
}
