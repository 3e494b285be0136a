package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"}, "203.0.113.1"},
		{"real ip header", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ClientIP(req))
		})
	}
}

func TestPrincipalOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "ip:192.168.1.1", httpx.PrincipalOrIP(req))

	req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserID: "u-1"}))
	require.Equal(t, "user:u-1", httpx.PrincipalOrIP(req))
}

func TestRateLimit(t *testing.T) {
	do := func(h http.Handler, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/invitations", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("blocks requests over the burst", func(t *testing.T) {
		h := httpx.RateLimit(httpx.RateLimitConfig{Requests: 3, Window: time.Minute, Burst: 3}, httpx.ClientIP)(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, do(h, "10.0.0.1").Code, "request %d", i+1)
		}

		rec := do(h, "10.0.0.1")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
	})

	t.Run("keys are tracked separately", func(t *testing.T) {
		h := httpx.RateLimit(httpx.RateLimitConfig{Requests: 1, Window: time.Minute}, httpx.ClientIP)(okHandler)

		require.Equal(t, http.StatusOK, do(h, "10.0.0.1").Code)
		require.Equal(t, http.StatusTooManyRequests, do(h, "10.0.0.1").Code)
		require.Equal(t, http.StatusOK, do(h, "10.0.0.2").Code)
	})

	t.Run("rejected requests do not use up tokens", func(t *testing.T) {
		h := httpx.RateLimit(httpx.RateLimitConfig{Requests: 1, Window: 100 * time.Millisecond}, httpx.ClientIP)(okHandler)

		require.Equal(t, http.StatusOK, do(h, "10.0.0.1").Code)
		for range 5 {
			require.Equal(t, http.StatusTooManyRequests, do(h, "10.0.0.1").Code)
		}
		time.Sleep(150 * time.Millisecond)
		require.Equal(t, http.StatusOK, do(h, "10.0.0.1").Code)
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		h := httpx.RateLimit(httpx.RateLimitConfig{Requests: 1, Window: time.Minute}, func(*http.Request) string { return "" })(okHandler)
		for range 3 {
			require.Equal(t, http.StatusOK, do(h, "10.0.0.1").Code)
		}
	})

	t.Run("disabled config passes through", func(t *testing.T) {
		h := httpx.RateLimit(httpx.RateLimitConfig{}, httpx.ClientIP)(okHandler)
		for range 10 {
			require.Equal(t, http.StatusOK, do(h, "10.0.0.1").Code)
		}
	})
}

func BenchmarkRateLimit(b *testing.B) {
	h := httpx.RateLimit(httpx.RateLimitConfig{Requests: 1_000_000, Window: time.Minute, Burst: 1000}, httpx.ClientIP)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	for b.Loop() {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
