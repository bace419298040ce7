package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/durabrake/findash/internal/analytics/http"
	"github.com/durabrake/findash/internal/auth"
	"github.com/durabrake/findash/internal/observability"
	"github.com/durabrake/findash/internal/platform/httpx"
	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/jobs"
	"github.com/durabrake/findash/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	AnalyticsHandler *analytichttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter builds the HTTP surface. Health, metrics and static assets sit
// outside the middleware stack; everything else gets sessions and CSRF, and
// all but the auth routes require a signed-in user.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	mountStatic(r, params.Logger)

	r.Group(func(r chi.Router) {
		r.Use(MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		})...)
		params.AuthHandler.MountRoutes(r)

		signedIn := r.With(auth.RequireUser)
		signedIn.Get("/", http.RedirectHandler("/dashboard", http.StatusSeeOther).ServeHTTP)
		signedIn.Group(func(r chi.Router) {
			params.AnalyticsHandler.MountRoutes(r)
			params.AnalyticsHandler.MountAPI(r)
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})
	return r
}

func mountStatic(r chi.Router, logger *slog.Logger) {
	assets, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("static assets unavailable", slog.Any("error", err))
		return
	}
	r.Handle("/static/*", staticCacheHandler(http.StripPrefix("/static/", http.FileServer(http.FS(assets)))))
}

// Minimal container images ship without /etc/mime.types.
var staticContentTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".svg": "image/svg+xml",
	".js":  "text/javascript; charset=utf-8",
}

// staticCacheHandler caches embedded assets in the browser for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if ct, ok := staticContentTypes[path.Ext(r.URL.Path)]; ok {
			w.Header().Set("Content-Type", ct)
		}
		next.ServeHTTP(w, r)
	})
}
