package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusBucket(t *testing.T) {
	assert.Equal(t, "2xx", statusBucket(200))
	assert.Equal(t, "3xx", statusBucket(301))
	assert.Equal(t, "4xx", statusBucket(404))
	assert.Equal(t, "5xx", statusBucket(500))
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, "203.0.113.5", clientIP(r))
}

func TestCORS_ReflectsAllowedOriginOnly(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	allowed.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, allowed)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	denied := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, denied)
	assert.Empty(t, w2.Header().Get("Access-Control-Allow-Origin"))
}

func TestBotFilter_RejectsHighScoringRequest(t *testing.T) {
	handler := BotFilter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBotFilter_AllowsHealthCheck(t *testing.T) {
	handler := BotFilter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
