package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/rs/zerolog/hlog"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: statusError, Message: message})
}

// writeUpstreamError maps a client or resolver error to a status code.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	hlog.FromRequest(r).Warn().Err(err).Int("status", code).Msg("Request failed")
	writeError(w, code, err.Error())
}

func statusFor(err error) int {
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, api.ErrNotFound), errors.Is(err, resolver.ErrNoSource):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr) && statusErr.Code >= 500:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
	h.Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
}

// cors adds the permissive CORS headers of the audio endpoints.
func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w.Header())
		next(w, r)
	}
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	setCORS(w.Header())
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}
