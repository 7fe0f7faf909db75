package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotScore_EmptyUserAgentIsMaxScore(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	assert.Equal(t, 100, BotScore(r))
}

func TestBotScore_KnownBotUAIsMaxScore(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	r.Header.Set("User-Agent", "curl/8.4.0")
	assert.Equal(t, 100, BotScore(r))
}

func TestBotScore_BrowserMissingAcceptHeadersScoresHigh(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0")
	assert.Equal(t, 100, BotScore(r))
}

func TestBotScore_FullBrowserHeadersScoreZero(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0")
	r.Header.Set("Accept", "text/html")
	r.Header.Set("Accept-Language", "en-US")
	r.Header.Set("Accept-Encoding", "gzip")
	assert.Equal(t, 0, BotScore(r))
}

func TestSkipBotFilter_ExemptsHealthMetricsOptionsAndSignedRequests(t *testing.T) {
	health := httptest.NewRequest(http.MethodGet, "/health", nil)
	assert.True(t, SkipBotFilter(health))

	metrics := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	assert.True(t, SkipBotFilter(metrics))

	opts := httptest.NewRequest(http.MethodOptions, "/orgs", nil)
	assert.True(t, SkipBotFilter(opts))

	signed := httptest.NewRequest(http.MethodPost, "/orgs", nil)
	signed.Header.Set("X-Signature", "deadbeef")
	assert.True(t, SkipBotFilter(signed))

	plain := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	assert.False(t, SkipBotFilter(plain))
}

func TestKeyer_AllowConsumesSeparateBucketsPerSubjectAndClass(t *testing.T) {
	k := NewKeyer(Limits{
		ClassLogin:   {RPS: 0, Burst: 1},
		ClassGeneric: {RPS: 1, Burst: 1},
	})

	ok, _ := k.Allow("1.2.3.4", ClassLogin)
	assert.True(t, ok)
	ok, _ = k.Allow("1.2.3.4", ClassLogin)
	assert.False(t, ok, "burst of 1 should deny the second immediate request")

	ok, _ = k.Allow("5.6.7.8", ClassLogin)
	assert.True(t, ok, "a different subject has its own bucket")

	ok, _ = k.Allow("1.2.3.4", ClassGeneric)
	assert.True(t, ok, "a different class has its own bucket")
}
