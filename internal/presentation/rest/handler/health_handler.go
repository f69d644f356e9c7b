package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthChecker 依存先の疎通確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PingResponse 疎通確認レスポンス
// @Description 疎通確認レスポンス
type PingResponse struct {
	OK     bool   `json:"ok" example:"true"`
	Method string `json:"method" example:"GET"`
}

// HealthResponse ヘルスチェックレスポンス
// @Description ヘルスチェックレスポンス
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}

// HealthHandler 疎通確認ハンドラー
type HealthHandler struct {
	db      HealthChecker
	timeout time.Duration
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:      db,
		timeout: 2 * time.Second,
	}
}

// Ping 疎通確認
// @Summary 疎通確認
// @Tags health
// @Produce json
// @Success 200 {object} PingResponse "応答"
// @Router /ping [get]
func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, PingResponse{OK: true, Method: c.Request().Method})
}

// Health データベースを含むヘルスチェック
// @Summary ヘルスチェック
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "正常"
// @Failure 503 {object} HealthResponse "データベースに接続できない"
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "unreachable"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
