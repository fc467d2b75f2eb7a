// errors/auth_errors.go
package errors

import "errors"

// Authentication failures: bad, missing, or expired credentials.
var (
	ErrMissingSignature = errors.New("missing request signature")
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("bad token")
)

// Authorization failures: a valid identity lacking the required rights.
var (
	ErrScopeMismatch    = errors.New("scope mismatch")
	ErrActionNotAllowed = errors.New("role lacks permission for action")
)
