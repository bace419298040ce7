package auth

import "net/http"

func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request)   { h.showLogin(w, r) }
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) { h.handleLogin(w, r) }
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}
