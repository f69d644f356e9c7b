package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"paybridge/internal/infrastructure/ratelimit"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

// RateLimitMessage 制限超過時のメッセージ
const RateLimitMessage = "Too many requests. Please try again later."

// RateLimitMiddleware クライアントIPごとのトークンバケットで要求数を制限する
func RateLimitMiddleware(limiter *ratelimit.Limiter, logger *otelinfra.Logger, metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := getClientIP(c)
			result := limiter.Allow(ip)

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				ctx := c.Request().Context()
				retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				header.Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfter))

				metrics.RecordRateLimited(ctx, c.Path())
				logger.Warn(ctx, "Rate limit exceeded", map[string]interface{}{
					"ip":   ip,
					"path": c.Request().URL.Path,
				})
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{Message: RateLimitMessage})
			}

			return next(c)
		}
	}
}
