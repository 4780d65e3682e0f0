package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/agrodesk/internal/config"
	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/utils"
)

const secret = "mw-secret"

func token(t *testing.T, roles ...model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, model.Identity{ID: 7, Name: "Asha", Roles: roles, Area: "Kerala"}, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

// guarded builds an echo app with one route behind JWTAuth and,
// optionally, RequireRole.
func guarded(roles ...model.Role) *echo.Echo {
	e := echo.New()
	mws := []echo.MiddlewareFunc{JWTAuth(secret)}
	if len(roles) > 0 {
		mws = append(mws, RequireRole(roles...))
	}
	e.GET("/p", func(c echo.Context) error {
		id, _ := UserID(c)
		cl, _ := Claims(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "area": cl.Area})
	}, mws...)
	return e
}

func do(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := guarded()

	rec := do(e, "Bearer "+token(t, model.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"area":"Kerala"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "Bearer not.a.jwt").Code)

	other, err := utils.NewAccessToken("other-secret", model.Identity{ID: 7}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, "Bearer "+other.Token).Code)

	expired, err := utils.NewAccessToken(secret, model.Identity{ID: 7}, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, "Bearer "+expired.Token).Code)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, "Bearer "+none).Code)
}

func TestRequireRole(t *testing.T) {
	admin := guarded(model.RoleAdmin)
	assert.Equal(t, http.StatusOK, do(admin, "Bearer "+token(t, model.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, do(admin, "Bearer "+token(t, model.RoleUser)).Code)
	assert.Equal(t, http.StatusForbidden, do(admin, "Bearer "+token(t)).Code)

	either := guarded(model.RoleUser, model.RoleAdmin)
	assert.Equal(t, http.StatusOK, do(either, "Bearer "+token(t, model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, do(either, "Bearer "+token(t, model.RoleAdmin)).Code)
}

func TestRequireRole_WithoutJWTAuthForbids(t *testing.T) {
	e := echo.New()
	e.GET("/p", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, do(e, "").Code)
}

func TestBearerToken(t *testing.T) {
	raw, ok := BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", raw)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Token abc"} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.New(&buf, "prod", "info")))
	e.GET("/x", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/err", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "nope") })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "rid-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "rid-123", rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var inside, done map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inside))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))
	assert.Equal(t, "rid-123", inside["request_id"])
	assert.Equal(t, "request", done["msg"])
	assert.Equal(t, float64(http.StatusNoContent), done["status"])

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/err", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestCacheKey_GroupsByRoute(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "agrodesk:cache", KeyStrategy: "route_query"}
	e := echo.New()

	mk := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/alert")
		return cacheKeyFrom(cfg, c)
	}
	k1, k2, k3 := mk("/alert?location=Kerala"), mk("/alert?location=Punjab"), mk("/alert?location=Kerala")
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "agrodesk:cache:/alert:"), k1)
}

func TestHasBody(t *testing.T) {
	assert.False(t, hasBody(httptest.NewRequest(http.MethodGet, "/alert", nil)))
	assert.True(t, hasBody(httptest.NewRequest(http.MethodGet, "/alert", strings.NewReader(`{"location":"Kerala"}`))))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `[]`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestRedisBacked_DisabledPassThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, secret))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil))
	e.GET("/alert", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alert", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	var p *CachePurger
	assert.NoError(t, p.Purge(t.Context(), "/alert"))
	assert.NoError(t, NewCachePurger(config.CacheConfig{Enabled: true}, nil).Purge(t.Context(), "/alert"))
}

func TestRateKey_VerifiesBearerBeforeJWTAuth(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
	keyFor := func(authz string) string {
		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		if authz != "" {
			req.Header.Set(echo.HeaderAuthorization, authz)
		}
		return buildRateKey(cfg, echo.New().NewContext(req, httptest.NewRecorder()), secret)
	}

	other, err := utils.NewAccessToken(secret, model.Identity{ID: 8}, time.Hour)
	require.NoError(t, err)
	forged, err := utils.NewAccessToken("other-secret", model.Identity{ID: 9}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "rl:user:7", keyFor("Bearer "+token(t, model.RoleUser)))
	assert.Equal(t, "rl:user:8", keyFor("Bearer "+other.Token))
	assert.Equal(t, "rl:user:anon", keyFor("Bearer "+forged.Token))
	assert.Equal(t, "rl:user:anon", keyFor("Bearer garbage"))
	assert.Equal(t, "rl:user:anon", keyFor(""))
}

func TestRateKeyAndRetryAfter(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/alert", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/alert")

	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:GET /alert",
		buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c, secret))
	c.Set(UserIDKey, uint64(9))
	assert.Equal(t, "rl:user:9", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c, secret))

	assert.Equal(t, 2, retryAfterSeconds(1500))
	assert.Equal(t, 0, retryAfterSeconds(-10))

	allowed, remaining, retry, ok := parseBucketResult([]interface{}{int64(1), int64(4), int64(0)})
	assert.True(t, ok)
	assert.True(t, allowed)
	assert.Equal(t, int64(4), remaining)
	assert.Equal(t, int64(0), retry)
	_, _, _, ok = parseBucketResult("nope")
	assert.False(t, ok)
}
