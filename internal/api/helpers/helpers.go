// Package helpers holds small JSON request/response utilities shared by
// every handler group.
package helpers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lumenforge/aac/internal/apperr"
)

// DecodeJSON decodes a JSON request body, rejecting unknown fields so a
// typo'd or malicious extra field never gets silently dropped.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding json response", "err", err)
	}
}

// RespondError writes {"error": message} with the given status.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondAppErr maps any error to its wire representation, defaulting to a
// bare 500 for errors that never passed through apperr.
func RespondAppErr(w http.ResponseWriter, log *slog.Logger, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Status() >= 500 {
			log.Error("request failed", "err", e)
		}
		RespondError(w, e.Status(), e.Message)
		return
	}
	log.Error("request failed with untyped error", "err", err)
	RespondError(w, http.StatusInternalServerError, "internal server error")
}

// ClientIP prefers X-Forwarded-For, then X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return r.RemoteAddr
}
