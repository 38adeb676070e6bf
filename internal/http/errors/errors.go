// Package httperrors traduce los errores de dominio al borde HTTP.
package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/cadenza/internal/auth"
)

// Standard error responses

var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized        = &HTTPError{Code: "unauthorized", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrConflict            = &HTTPError{Code: "conflict", Message: "Conflict", Status: http.StatusConflict}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// HTTPError represents a standard API error.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail returns a copy of the error with specific details.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: e.Message,
		Detail:  detail,
		Status:  e.Status,
	}
}

// FromDomain mapea un *auth.Error a su forma wire. El code y el status
// salen de la tabla de kinds; AuthScopesMissing expone el set faltante.
func FromDomain(err *auth.Error) *HTTPError {
	out := &HTTPError{
		Code:    err.Code,
		Message: err.Message,
		Status:  err.Status,
	}
	if err.Kind == auth.KindAuthScopesMissing {
		out.Scope = err.Missing.Scope()
	}
	return out
}

// WriteError writes the error to the response writer.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	var domainErr *auth.Error

	switch {
	case errors.As(err, &httpErr):
	case errors.As(err, &domainErr):
		httpErr = FromDomain(domainErr)
	default:
		httpErr = ErrInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}

// WriteJSON escribe una respuesta JSON con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
