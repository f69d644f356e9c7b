package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paybridge/internal/infrastructure/config"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/infrastructure/ratelimit"
)

func TestRateLimitMiddleware(t *testing.T) {
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	limiter := ratelimit.NewLimiter(config.RateLimitConfig{
		Window:  time.Hour,
		Max:     2,
		Burst:   1,
		IdleTTL: time.Hour,
	})
	middleware := RateLimitMiddleware(limiter, testLogger(), metrics)

	send := func(forwardedFor string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/paystack/verify", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := middleware(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
		return rec
	}

	// 容量は max+burst = 3
	for i := 0; i < 3; i++ {
		rec := send("198.51.100.1, 10.0.0.1")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := send("198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Too many requests. Please try again later."}`, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderRetryAfter))

	// 先頭IPが異なれば別のバケット
	rec = send("198.51.100.2, 198.51.100.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}
