// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses and the
// mapping from service errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finassist/internal/core"
	"finassist/internal/log"
	"finassist/internal/services"
	"finassist/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Message sets a {"message": ...} body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(map[string]string{"message": msg})
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	w.WriteHeader(b.statusCode)
	if b.body == nil || b.statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a {"detail": ...} error response.
func ErrorResponse(statusCode int, detail string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(map[string]string{"detail": detail})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, detail)
}

// UnauthorizedError creates a 401 response with a bearer challenge.
func UnauthorizedError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, detail).
		Header("WWW-Authenticate", "Bearer")
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, detail)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, detail)
}

// errorFor maps a service error to its response. Unexpected errors never
// leak their text to the client.
func errorFor(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		return BadRequestError("Username already exists")
	case core.IsValidation(err), errors.Is(err, services.ErrInvalidHistoryRange), errors.Is(err, errBadRequest):
		return BadRequestError(err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return UnauthorizedError("Invalid credentials")
	case errors.Is(err, services.ErrUnauthenticated):
		return UnauthorizedError("Login required")
	case errors.Is(err, storage.ErrNotFound):
		return NotFoundError("Not found")
	case errors.Is(err, services.ErrUnavailable):
		return ErrorResponse(http.StatusServiceUnavailable, "Database not connected")
	default:
		return InternalServerError("Internal server error")
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
			"Request failed", err, log.ComponentHTTP, op,
			log.LogFields{log.FieldStatusCode: resp.statusCode})
	}
	resp.Write(w)
}
