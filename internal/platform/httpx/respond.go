// Package httpx writes JSON and RFC 7807 problem responses for the API.
package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
)

// ProblemDetail is an RFC 7807 body. Type is always about:blank here, so
// Title carries the status text.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data with status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, contentTypeJSON, status, data)
}

// Problem writes a problem body. An empty title defaults to the status text.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	if title == "" {
		title = http.StatusText(status)
	}
	write(w, contentTypeProblem, status, ProblemDetail{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

// write encodes before touching headers so an unencodable value becomes a
// plain 500 instead of a truncated body.
func write(w http.ResponseWriter, contentType string, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
