// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. The codes give clients a stable machine-readable taxonomy on
// top of HTTP status semantics; handlers pick the most specific matching
// code and pass it to fail() together with the status and message.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodePresenceFailed    = "presence_failed"
	ErrCodeReactFailed       = "react_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeStreamUnsupported = "stream_unsupported"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
