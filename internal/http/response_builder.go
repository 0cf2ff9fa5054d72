package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/report"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// errMalformed marks a request the server could not decode.
type errMalformed struct{ msg string }

func (e *errMalformed) Error() string { return e.msg }

func malformed(msg string) error { return &errMalformed{msg: msg} }

// errUnavailable marks an optional integration that is not configured.
var errUnavailable = errors.New("feature not configured")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	var m *errMalformed
	switch {
	case errors.As(err, &m), errors.Is(err, report.ErrMalformedBackup):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrValidation), errors.Is(err, report.ErrUnsupportedVersion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrReference):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, nil)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}
