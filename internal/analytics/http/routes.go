package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/durabrake/findash/internal/platform/httpx"
	"github.com/durabrake/findash/internal/shared"
)

// exportsPerMinute caps PDF and CSV renders per signed-in user.
const exportsPerMinute = 10

// MountRoutes registers the dashboard page and its exports. The caller is
// responsible for the credential gate.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/dashboard", h.handleDashboard)

	exports := r.With(exportLimiter())
	exports.Get("/dashboard/pdf", h.handlePDF)
	exports.Get("/dashboard/export/{section}.csv", h.handleCSV)
}

// MountAPI registers the read-only JSON API.
func (h *Handler) MountAPI(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/api/periods", func(r chi.Router) {
		r.Get("/", h.handleAPIPeriods)
		r.Get("/{period}/{section}", h.handleAPISection)
	})
}

func exportLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(exportsPerMinute, time.Minute,
		httprate.WithKeyFuncs(exportKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "", "export limit reached, retry in a minute")
		}),
	)
}

// exportKey buckets by user, falling back to client IP for anonymous calls.
func exportKey(r *http.Request) (string, error) {
	if user := shared.UserFromContext(r.Context()); user != "" {
		return "user:" + user, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}
