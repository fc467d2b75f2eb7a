// errors/gateway_errors.go
package errors

import "errors"

var (
	ErrThreatDetected         = errors.New("payload matched injection heuristics")
	ErrConsensusDenied        = errors.New("consensus verdict rejected the action")
	ErrSandboxRejected        = errors.New("script failed static safety check")
	ErrSandboxTimeout         = errors.New("sandbox execution exceeded resource limits")
	ErrAttestationUnavailable = errors.New("attestation ledger unreachable")
	ErrInvalidRequest         = errors.New("invalid request data")
	ErrInternalServer         = errors.New("internal server error")
)
