package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bookease/bookease/internal/config"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Custom", "v")
	body := []byte(`{"items":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	require.Equal(t, "v", gotHdr.Get("X-Custom"))
	require.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsTruncated(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 0, 0})
	require.False(t, ok)

	// header length pointing past the end of the buffer
	bs, err := encodePayload(200, http.Header{"A": {"b"}}, []byte("x"))
	require.NoError(t, err)
	_, _, _, ok = decodePayload(bs[:9])
	require.False(t, ok)
}

func newCatalogCtx(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/providers")
	return c
}

func TestCacheKeyDependsOnQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	a := cacheKeyFrom(cfg, newCatalogCtx("/api/providers?service=plumbing"))
	b := cacheKeyFrom(cfg, newCatalogCtx("/api/providers?service=cleaning"))
	require.NotEqual(t, a, b)

	again := cacheKeyFrom(cfg, newCatalogCtx("/api/providers?service=plumbing"))
	require.Equal(t, a, again)
}

func TestBuildRateKeyUsesAuthenticatedUser(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}

	anon := newCatalogCtx("/api/providers")
	require.Equal(t, "rl:user:anon", buildRateKey(cfg, anon))

	authed := newCatalogCtx("/api/providers")
	authed.Set("user_id", uint64(7))
	require.Equal(t, "rl:user:7", buildRateKey(cfg, authed))

	// the JWT middleware stores the raw sub claim, float64 after JSON
	// decoding
	decoded := newCatalogCtx("/api/providers")
	decoded.Set("user_id", float64(7))
	require.Equal(t, "rl:user:7", buildRateKey(cfg, decoded))
}

func TestCacheBypassesAuthorizedRequests(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		KeyStrategy: "route_query",
		Prefix:      "catalog",
	}
	// nothing listens here; a lookup would surface as a MISS header
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	mw := NewRedisCache(cfg, rdb)

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	}

	c := newCatalogCtx("/api/providers")
	c.Request().Header.Set("Authorization", "Bearer whatever")
	require.NoError(t, mw(next)(c))
	require.True(t, called)
	require.Empty(t, c.Response().Header().Get("X-Cache"))
}
