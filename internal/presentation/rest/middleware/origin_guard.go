package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

const (
	corsAllowMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// OriginGuardMiddleware 許可リストでOrigin/Refererを検査し、CORSヘッダーを付与する。
// Originは完全一致、Originがない場合のRefererは前方一致で判定する。
// localhostからの要求は開発用として常に許可し、どちらもない要求はサーバー間通信とみなす。
func OriginGuardMiddleware(allowedOrigins []string, logger *otelinfra.Logger) echo.MiddlewareFunc {
	allowed := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			referer := req.Header.Get("Referer")
			header := c.Response().Header()

			switch {
			case isLocalhost(origin) || (origin == "" && isLocalhost(referer)):
				allowOrigin := origin
				if allowOrigin == "" {
					allowOrigin = "*"
				}
				setCORSHeaders(header, allowOrigin)
			case origin != "":
				if !containsExact(allowed, origin) {
					return reject(c, logger, "Origin not allowed: "+origin)
				}
				setCORSHeaders(header, origin)
			case referer != "":
				if !hasAllowedPrefix(allowed, referer) {
					return reject(c, logger, "Referer not allowed: "+referer)
				}
				header.Set(echo.HeaderAccessControlAllowOrigin, "*")
			default:
				header.Set(echo.HeaderAccessControlAllowOrigin, "*")
			}

			if req.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

func setCORSHeaders(header http.Header, origin string) {
	header.Set(echo.HeaderAccessControlAllowOrigin, origin)
	header.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
	header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	header.Set(echo.HeaderAccessControlAllowCredentials, "true")
	header.Add(echo.HeaderVary, echo.HeaderOrigin)
}

func reject(c echo.Context, logger *otelinfra.Logger, message string) error {
	logger.Warn(c.Request().Context(), "Request origin rejected", map[string]interface{}{
		"message": message,
		"path":    c.Request().URL.Path,
	})
	return c.JSON(http.StatusForbidden, ErrorResponse{Message: message})
}

// isLocalhost URLのホスト名がlocalhostかどうか
func isLocalhost(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Hostname() == "localhost"
}

func containsExact(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func hasAllowedPrefix(list []string, v string) bool {
	for _, item := range list {
		if strings.HasPrefix(v, item) {
			return true
		}
	}
	return false
}
