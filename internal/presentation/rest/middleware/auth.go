package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authapp "paybridge/internal/application/auth"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

// ContextKeyOperatorID 認証済み運用者IDを入れるechoコンテキストのキー
const ContextKeyOperatorID = "operator_id"

// TokenParser トークンを検証して運用者IDを返す
type TokenParser interface {
	ParseToken(tokenString string) (string, error)
}

// AuthMiddleware JWT認証ミドルウェア
func AuthMiddleware(parser TokenParser, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing authorization header",
				})
			}

			// Bearerトークンの形式を確認
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid authorization header format",
				})
			}

			operatorID, err := parser.ParseToken(parts[1])
			if errors.Is(err, authapp.ErrMissingOperator) {
				logger.Warn(ctx, "Missing operator_id in token claims", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing operator_id in token",
				})
			}
			if err != nil {
				logger.Warn(ctx, "Invalid token", map[string]interface{}{
					"error": err.Error(),
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid or expired token",
				})
			}

			c.Set(ContextKeyOperatorID, operatorID)

			return next(c)
		}
	}
}
