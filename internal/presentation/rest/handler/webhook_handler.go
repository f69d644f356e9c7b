package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	webhookapp "paybridge/internal/application/webhook"
)

// SignatureHeader プロセッサが付与する署名ヘッダー
const SignatureHeader = "x-paystack-signature"

// maxWebhookBody Webhook本文の上限
const maxWebhookBody = 1 << 20

// WebhookService Webhookアプリケーションサービス
type WebhookService interface {
	Handle(ctx context.Context, body []byte, signature string) (*webhookapp.Result, error)
}

// WebhookResponse Webhook応答
// @Description Webhook応答（署名不一致以外は常に200）
type WebhookResponse struct {
	Success bool   `json:"success" example:"true"`
	Status  string `json:"status" example:"processed"`
}

// WebhookHandler Webhookハンドラー
type WebhookHandler struct {
	webhookService WebhookService
}

// NewWebhookHandler 新しいWebhookHandlerを作成
func NewWebhookHandler(webhookService WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// Handle Webhook受信ハンドラー
// @Summary 決済イベントを受信
// @Description 生の本文に対するHMAC-SHA512署名を検証し、charge.success なら再確認のうえ供給します
// @Tags paystack
// @Accept json
// @Produce json
// @Param x-paystack-signature header string true "本文のHMAC-SHA512（hex）"
// @Success 200 {object} WebhookResponse "受信"
// @Failure 400 {object} ErrorResponse "署名不一致"
// @Failure 413 {object} ErrorResponse "本文が1MiBを超過"
// @Failure 500 {object} ErrorResponse "シークレットキー未設定"
// @Router /paystack/webhook [post]
func (h *WebhookHandler) Handle(c echo.Context) error {
	// 署名は受信したバイト列そのものに対して検証する
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(body) > maxWebhookBody {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "webhook payload too large")
	}

	result, err := h.webhookService.Handle(c.Request().Context(), body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Success: true,
		Status:  result.Status,
	})
}
