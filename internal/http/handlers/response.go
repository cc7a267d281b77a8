// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: a structured error envelope, consistent JSON serialization, and
// the translation from service-level sentinel errors to HTTP statuses.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting; 5xx responses are
//     logged with request context and never leak internal detail.
//   - `ok()` writes success responses in a consistent shape.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "user not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID echoed from X-Request-ID, used to match
//     server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable description, safe for display to users.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"user not found"`
}

// MessageResponse is the body returned by delete endpoints.
type MessageResponse struct {
	Message string `json:"message" example:"User deleted successfully."`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged with the request-scoped logger; their message is replaced with a
// generic one so store-level details never reach the caller.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
		msg = "internal server error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail(). External packages (e.g. router
// setup) call it to return consistent envelopes for NoRoute/NoMethod.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failService maps service-level sentinel errors onto the HTTP taxonomy:
// validation -> 400, absence -> 404, uniqueness -> 409, everything else ->
// 500 with a generic message.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidThoughtText),
		errors.Is(err, services.ErrInvalidReactionBody),
		errors.Is(err, services.ErrSelfFriendship):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrFriendNotFound),
		errors.Is(err, services.ErrThoughtNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateUser):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
