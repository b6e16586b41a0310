// internal/app/system/respond/respond.go

// Package respond writes JSON responses and errors with a consistent shape.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Encode failures after WriteHeader can only be abandoned; the status
	// line is already on the wire.
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Decode reads the request body into v. Unknown fields are rejected so typos
// in mutation payloads surface as 400s instead of silent no-ops.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ErrorLogger pairs error responses with structured logging so no write
// failure disappears into a silent stale UI.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger on the given zap logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// ServerError logs err at error level and responds 500 with userMsg.
func (e *ErrorLogger) ServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.Log.Error(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	Error(w, http.StatusInternalServerError, userMsg)
}

// BadRequest logs err at warn level and responds 400 with userMsg.
func (e *ErrorLogger) BadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.Log.Warn(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	Error(w, http.StatusBadRequest, userMsg)
}

// NotFound responds 404 with a stable message.
func (e *ErrorLogger) NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}
