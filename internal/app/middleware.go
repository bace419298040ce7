package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/durabrake/findash/internal/observability"
	"github.com/durabrake/findash/internal/shared"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRatePerMinute  = 120
	csrfHeader            = "X-CSRF-Token"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
}

// MiddlewareStack returns the chain for every browser-facing route, outermost
// first. Sessions load after rate limiting so floods never reach Redis.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		requestLogger(cfg.Logger),
		middleware.Recoverer,
		secureHeaders(cfg.Config, cfg.Logger),
	}
	if cfg.Metrics != nil {
		chain = append(chain, cfg.Metrics.Middleware)
	}
	return append(chain,
		middleware.Timeout(requestTimeoutFor(cfg.Config)),
		middleware.Compress(5),
		httprate.Limit(ratePerMinuteFor(cfg.Config), time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		sessions(cfg.SessionManager, cfg.Logger),
		csrfGuard(cfg.CSRFManager, cfg.Logger),
	)
}

func requestTimeoutFor(cfg *Config) time.Duration {
	if cfg != nil && cfg.AppRequestTimeout > 0 {
		return cfg.AppRequestTimeout
	}
	return defaultRequestTimeout
}

func ratePerMinuteFor(cfg *Config) int {
	if cfg != nil && cfg.RateLimitPerMinute > 0 {
		return cfg.RateLimitPerMinute
	}
	return defaultRatePerMinute
}

func secureHeaders(cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	prod := cfg.IsProduction()
	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		// Inline SVG charts carry style attributes.
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
		SSLRedirect:           prod,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !prod,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessions loads the caller's session into the request context and commits it
// the moment the handler first writes.
func sessions(mgr *shared.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := mgr.Load(r.Context(), r)
			if err != nil {
				logger.Error("load session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
			next.ServeHTTP(&committingWriter{ResponseWriter: w, req: r, sess: sess, mgr: mgr, logger: logger}, r)
		})
	}
}

type committingWriter struct {
	http.ResponseWriter
	req       *http.Request
	sess      *shared.Session
	mgr       *shared.SessionManager
	logger    *slog.Logger
	committed bool
}

func (w *committingWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if err := w.mgr.Commit(w.req.Context(), w.ResponseWriter, w.req, w.sess); err != nil {
		w.logger.Error("commit session", slog.Any("error", err))
	}
}

func (w *committingWriter) WriteHeader(status int) {
	w.commit()
	w.ResponseWriter.WriteHeader(status)
}

func (w *committingWriter) Write(p []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(p)
}

// csrfGuard rejects unsafe methods whose form field or X-CSRF-Token header does
// not match the session token.
func csrfGuard(mgr *shared.CSRFManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			token := r.PostFormValue(shared.CSRFFormField)
			if token == "" {
				token = r.Header.Get(csrfHeader)
			}
			if err := mgr.VerifyToken(r.Context(), shared.SessionFromContext(r.Context()), token); err != nil {
				logger.Warn("csrf rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
