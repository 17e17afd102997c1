// Package http serves the spendlog JSON API.
//
// This file holds the response builder and the mapping from service errors
// to status codes, so every handler answers with the same envelope.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

// ErrorBody is the envelope of every non-2xx response.
type ErrorBody struct {
	Message string                `json:"message"`
	Errors  []core.FieldViolation `json:"errors,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
	cookies    []*http.Cookie
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

// Cookie attaches a Set-Cookie header.
func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(payload any) *JSONResponseBuilder {
	b.payload = payload
	return b
}

// Message sets a {"message": ...} body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(map[string]string{"message": msg})
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	NewJSONResponse().Status(status).Body(payload).Write(w)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	NewJSONResponse().Status(status).Message(msg).Write(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorBody{Message: msg})
}

// ErrorResponse builds the error envelope for err. Validation errors list
// every violation; anything without a known kind becomes a generic 500.
func ErrorResponse(err error) *JSONResponseBuilder {
	status := statusFor(err)
	body := ErrorBody{Message: core.PublicMessage(err)}
	if status == http.StatusInternalServerError {
		body.Message = "Internal Server Error"
	}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Violations
	}
	return NewJSONResponse().Status(status).Body(body)
}

// writeServiceError answers with ErrorResponse and logs the failures that
// are not the client's fault.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	resp := ErrorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ErrorTypeInternal, component, op, nil)
	} else {
		applog.FromContext(r.Context()).Logger.DebugContext(r.Context(), "Request rejected",
			slog.String(applog.FieldOperation, op),
			slog.String(applog.FieldError, err.Error()),
			slog.String(applog.FieldErrorType, errorTypeFor(err)))
	}
	resp.Write(w)
}

func errorTypeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return applog.ErrorTypeValidation
	case errors.Is(err, core.ErrAuthentication):
		return applog.ErrorTypeAuth
	case errors.Is(err, core.ErrNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrConflict):
		return applog.ErrorTypeConflict
	default:
		return applog.ErrorTypeInternal
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
