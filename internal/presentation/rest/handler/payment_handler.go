package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	paymentapp "paybridge/internal/application/payment"
)

// PaymentService 決済アプリケーションサービス
type PaymentService interface {
	Initialize(ctx context.Context, req *paymentapp.InitializeRequest) (*paymentapp.InitializeResponse, error)
	Verify(ctx context.Context, req *paymentapp.VerifyRequest) (*paymentapp.VerifyResponse, error)
	CheckBalance(ctx context.Context, req *paymentapp.CheckBalanceRequest) (*paymentapp.CheckBalanceResponse, error)
}

// PaymentHandler 決済関連ハンドラー
type PaymentHandler struct {
	paymentService PaymentService
}

// NewPaymentHandler 新しいPaymentHandlerを作成
func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Initialize 決済セッション作成ハンドラー
// @Summary 決済セッションを作成
// @Description 商品メタデータがあればベンダーの在庫を事前確認してから決済セッションを作成します
// @Tags paystack
// @Accept json
// @Produce json
// @Param request body InitializeRequest true "決済セッション作成リクエスト"
// @Success 200 {object} InitializeResponse "作成成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト・在庫不足"
// @Failure 403 {object} ErrorResponse "許可されていないOrigin"
// @Failure 429 {object} ErrorResponse "レート制限"
// @Failure 500 {object} ErrorResponse "プロセッサ・ベンダーの設定不備や失敗"
// @Router /paystack/initialize [post]
func (h *PaymentHandler) Initialize(c echo.Context) error {
	var reqBody InitializeRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&reqBody); err != nil {
		return err
	}

	resp, err := h.paymentService.Initialize(c.Request().Context(), &paymentapp.InitializeRequest{
		Email:       reqBody.Email,
		Amount:      string(reqBody.Amount),
		CallbackURL: reqBody.CallbackURL,
		Metadata:    reqBody.Metadata,
		Channels:    reqBody.Channels,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, InitializeResponse{
		Success:          true,
		Reference:        resp.Reference,
		AccessCode:       resp.AccessCode,
		AuthorizationURL: resp.AuthorizationURL,
		PublicKey:        resp.PublicKey,
	})
}

// Verify 決済確認ハンドラー
// @Summary 決済を確認し供給する
// @Description プロセッサで決済を確認し、対象ネットワークの商品ならデータを供給します。供給失敗時も決済は成功として order.status=pending_manual_processing を返します
// @Tags paystack
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "決済確認リクエスト"
// @Success 200 {object} VerifyResponse "確認成功"
// @Failure 400 {object} ErrorResponse "リファレンスなし・未完了の決済"
// @Failure 500 {object} ErrorResponse "プロセッサの設定不備や通信失敗"
// @Router /paystack/verify [post]
func (h *PaymentHandler) Verify(c echo.Context) error {
	var reqBody VerifyRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&reqBody); err != nil {
		return err
	}

	resp, err := h.paymentService.Verify(c.Request().Context(), &paymentapp.VerifyRequest{
		Reference: reqBody.Reference,
	})
	if err != nil {
		return err
	}

	out := VerifyResponse{Success: true, Paystack: resp.Paystack}
	if resp.Order != nil {
		out.Order = &OrderResult{
			OrderID:          resp.Order.OrderID,
			Status:           resp.Order.Status,
			ErrorDetail:      resp.Order.ErrorDetail,
			AlreadyFulfilled: resp.Order.AlreadyFulfilled,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// CheckBalance 在庫確認ハンドラー
// @Summary 注文可能かを確認
// @Description サービス停止スイッチ・価格表・記録済みのベンダー残高から注文可能かを返します
// @Tags paystack
// @Accept json
// @Produce json
// @Param request body CheckBalanceRequest true "在庫確認リクエスト"
// @Success 200 {object} CheckBalanceResponse "判定結果"
// @Failure 400 {object} ErrorResponse "ネットワーク・データ量なし"
// @Failure 500 {object} ErrorResponse "判定失敗"
// @Router /paystack/check-balance [post]
func (h *PaymentHandler) CheckBalance(c echo.Context) error {
	var reqBody CheckBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.paymentService.CheckBalance(c.Request().Context(), &paymentapp.CheckBalanceRequest{
		Network:    reqBody.Network,
		DataAmount: string(reqBody.DataAmount),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CheckBalanceResponse{
		Success:        true,
		HasBalance:     resp.HasBalance,
		Message:        resp.Message,
		CurrentBalance: resp.CurrentBalance,
		Price:          resp.Price,
	})
}
