// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler writes failed requests with standardized error handling
type HTTPHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewHTTPHandler(logger Logger) *HTTPHandler {
	return &HTTPHandler{logger: logger}
}

// errorEnvelope is the wire shape for failed requests.
type errorEnvelope struct {
	Success bool           `json:"success"`
	Error   *StandardError `json:"error"`
}

// WriteError handles any error at the HTTP boundary
func (h *HTTPHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	// Normalize to StandardError
	stdErr := h.normalizeError(err)

	h.logger.Error("request failed", map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"error_code": string(stdErr.Code),
		"error":      stdErr.Details,
		"category":   GetErrorCategory(stdErr.Code),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: stdErr})
}

// normalizeError ensures we always have a StandardError
func (h *HTTPHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}
