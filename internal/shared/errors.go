package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Unknown identifiers and wrong
	// secrets both map to this error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnresolvableRole marks a role identifier with no catalog entry. It is only
	// logged and audited, never returned to a caller.
	ErrUnresolvableRole = errors.New("unresolvable role")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
