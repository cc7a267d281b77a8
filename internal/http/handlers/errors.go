// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper and give clients a stable, machine-readable taxonomy that
// supplements the human-readable message.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics (bad_request,
//     not_found, conflict) to aid interoperability.
//   - Every error response carries both an HTTP status and one of these codes.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
