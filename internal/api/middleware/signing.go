package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/kys"
)

// SigningEnvelope verifies the X-Client-ID/X-Timestamp/X-Nonce/X-Signature
// header set against the request body, per the service-to-service request
// signing scheme, and injects the verified client ID into the context.
func SigningEnvelope(reg *kys.Registry, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Client-ID")
			timestampStr := r.Header.Get("X-Timestamp")
			nonce := r.Header.Get("X-Nonce")
			signature := r.Header.Get("X-Signature")

			if clientID == "" || timestampStr == "" || nonce == "" || signature == "" {
				http.Error(w, "missing signing headers", http.StatusUnauthorized)
				return
			}

			timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
			if err != nil {
				http.Error(w, "invalid timestamp header", http.StatusBadRequest)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "reading request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			env := kys.Envelope{
				ClientID:      clientID,
				Method:        r.Method,
				Path:          r.URL.Path,
				Timestamp:     timestamp,
				Nonce:         nonce,
				BodySHA256Hex: crypto.SHA256Hex(body),
				SignatureHex:  signature,
			}

			svc, err := reg.VerifyEnvelope(r.Context(), env, time.Now())
			if err != nil {
				log.Warn("signing: envelope verification failed", "err", err, "client_id", clientID)
				http.Error(w, "signature verification failed", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), svc.ClientID)))
		})
	}
}
