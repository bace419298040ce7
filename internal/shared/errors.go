package shared

import "errors"

// Errors shared by the session, CSRF and credential layers.
var (
	ErrNotFound           = errors.New("shared: not found")
	ErrInvalidCredentials = errors.New("shared: invalid credentials")
	ErrSessionStore       = errors.New("shared: session store unavailable")
	ErrCSRFTokenMissing   = errors.New("shared: csrf token missing")
	ErrCSRFTokenMismatch  = errors.New("shared: csrf token mismatch")
)
