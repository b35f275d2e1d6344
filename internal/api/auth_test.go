package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"viona/internal/config"

	"github.com/stretchr/testify/assert"
)

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "admin-key", Extra: "admin-extra", Name: "admin"},
				{Key: "reader-key", Extra: "reader-extra", Name: "reader", Permissions: []string{"read:bookings"}},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 100, Burst: 200},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doAuthRequest(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPAuth(t *testing.T) {
	h := NewHTTPAuth(testAPIConfig()).Wrap(okHandler())

	t.Run("PublicPathNeedsNoKey", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodGet, "/api/v1/rooms", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Success", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodGet, "/api/v1/admin/bookings", map[string]string{
			"x-api-key": "admin-key", "x-api-extra": "admin-extra",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingHeaders", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodGet, "/api/v1/admin/bookings", map[string]string{"x-api-key": "admin-key"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), errMissingHeaders.Error())
	})

	t.Run("InvalidKey", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodGet, "/api/v1/admin/bookings", map[string]string{
			"x-api-key": "nope", "x-api-extra": "admin-extra",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), errInvalidAPIKey.Error())
	})

	t.Run("WrongExtra", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodGet, "/api/v1/admin/bookings", map[string]string{
			"x-api-key": "admin-key", "x-api-extra": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), errInvalidExtra.Error())
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodPut, "/api/v1/admin/site-config", map[string]string{
			"x-api-key": "reader-key", "x-api-extra": "reader-extra",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("PermissionGranted", func(t *testing.T) {
		rec := doAuthRequest(h, http.MethodGet, "/api/v1/admin/stats", map[string]string{
			"x-api-key": "reader-key", "x-api-extra": "reader-extra",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHTTPAuthRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	h := NewHTTPAuth(cfg).Wrap(okHandler())

	headers := map[string]string{"x-api-key": "admin-key", "x-api-extra": "admin-extra"}
	assert.Equal(t, http.StatusOK, doAuthRequest(h, http.MethodGet, "/api/v1/admin/stats", headers).Code)
	assert.Equal(t, http.StatusOK, doAuthRequest(h, http.MethodGet, "/api/v1/admin/stats", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, doAuthRequest(h, http.MethodGet, "/api/v1/admin/stats", headers).Code)

	// limits are per client key
	assert.Equal(t, http.StatusOK, doAuthRequest(h, http.MethodGet, "/api/v1/rooms", nil).Code)
}

func TestHTTPAuthRateLimitIgnoresKeysOnPublicRoutes(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	auth := NewHTTPAuth(cfg)
	h := auth.Wrap(okHandler())

	for i := 0; i < 2; i++ {
		headers := map[string]string{"x-api-key": fmt.Sprintf("made-up-%d", i)}
		assert.Equal(t, http.StatusOK, doAuthRequest(h, http.MethodGet, "/api/v1/rooms", headers).Code)
	}
	// a fresh header value does not buy a fresh bucket
	headers := map[string]string{"x-api-key": "made-up-2"}
	assert.Equal(t, http.StatusTooManyRequests, doAuthRequest(h, http.MethodGet, "/api/v1/rooms", headers).Code)

	// rejected admin keys do not get a bucket either
	bad := map[string]string{"x-api-key": "nope", "x-api-extra": "x"}
	assert.Equal(t, http.StatusUnauthorized, doAuthRequest(h, http.MethodGet, "/api/v1/admin/stats", bad).Code)

	assert.Equal(t, 1, auth.limiter.size())
}

func TestRequiredPermission(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/admin/bookings", permReadBookings},
		{http.MethodGet, "/api/v1/admin/bookings/export", permReadBookings},
		{http.MethodGet, "/api/v1/admin/stats", permReadBookings},
		{http.MethodGet, "/api/v1/admin/availability/report", permReadAvailability},
		{http.MethodPut, "/api/v1/admin/site-config", permWriteConfig},
		{http.MethodGet, "/api/v1/admin/site-config", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, requiredPermission(req), tc.method+" "+tc.path)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 50; i++ {
		assert.True(t, l.allow("k"))
	}
}

func (l *rateLimiter) size() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
