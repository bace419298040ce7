package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/internal/view"
)

const (
	loginPath   = "/login"
	landingPath = "/dashboard"
	badLogin    = "Invalid username or password"
)

// Handler serves the sign-in and sign-out endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	sessions  *shared.SessionManager
	csrf      *shared.CSRFManager
	validate  *validator.Validate
}

// NewHandler constructs a Handler. A nil logger uses slog.Default.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		sessions:  sessions,
		csrf:      csrf,
		validate:  validator.New(),
	}
}

// MountRoutes registers the public auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(loginPath, h.showLogin)
	r.Post(loginPath, h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// RequireUser sends anonymous requests to the login page. GETs for anything
// but the root keep their target in ?next=.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(shared.UserFromContext(r.Context())) != "" {
			next.ServeHTTP(w, r)
			return
		}
		target := loginPath
		if r.Method == http.MethodGet && r.URL.Path != "/" {
			target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

type loginForm struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=128"`
	Next     string
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if shared.UserFromContext(r.Context()) != "" {
		http.Redirect(w, r, landingPath, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{Form: loginForm{Next: r.URL.Query().Get("next")}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("login without session middleware")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := h.csrf.VerifyToken(r.Context(), sess, r.PostFormValue(shared.CSRFFormField)); err != nil {
		h.logger.Warn("login csrf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	form, errs := h.readLoginForm(r)
	if len(errs) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
		if err == nil {
			h.signIn(r, sess, user)
			http.Redirect(w, r, safeNext(form.Next), http.StatusSeeOther)
			return
		}
		h.logger.Info("login rejected", slog.String("username", form.Username))
		errs["general"] = badLogin
	}
	form.Password = ""
	h.renderLogin(w, r, http.StatusBadRequest, loginPageData{Form: form, Errors: errs})
}

func (h *Handler) readLoginForm(r *http.Request) (loginForm, map[string]string) {
	form := loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Next:     r.PostFormValue("next"),
	}
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if err := h.validate.Struct(form); errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs[fe.Field()] = fieldMessage(fe)
		}
	}
	return form, errs
}

// signIn moves the session to a new ID and token before attaching the user,
// so an identifier planted before login is useless afterwards.
func (h *Handler) signIn(r *http.Request, sess *shared.Session, user *User) {
	h.sessions.Renew(sess)
	if _, err := h.csrf.Rotate(r.Context(), sess); err != nil {
		h.logger.Warn("rotate csrf token", slog.Any("error", err))
	}
	sess.SetUser(user.Username)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})

	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.logger.Info("signed in", slog.String("username", user.Username))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.csrf.VerifyToken(r.Context(), sess, r.PostFormValue(shared.CSRFFormField)); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		login, err := h.service.EndSession(r.Context(), sess.ID)
		switch {
		case err != nil:
			h.logger.Warn("end session", slog.Any("error", err))
		case login != nil:
			h.logger.Info("signed out",
				slog.String("username", login.Username),
				slog.Duration("session_length", time.Since(login.CreatedAt)))
		}
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	sess := shared.SessionFromContext(r.Context())
	page := view.TemplateData{Title: "Sign in", CurrentPath: r.URL.Path, Data: data}
	if sess != nil {
		page.CSRFToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		page.Flash = sess.PopFlash()
	}
	if err := h.templates.RenderStatus(w, status, "pages/login.html", page); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " is too long"
	}
	return fe.Error()
}

// safeNext only follows local absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return landingPath
	}
	return next
}
