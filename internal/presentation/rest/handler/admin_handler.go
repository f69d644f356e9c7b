package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	adminapp "paybridge/internal/application/admin"
	authapp "paybridge/internal/application/auth"
	domaintx "paybridge/internal/domain/transaction"
)

// AdminService 運用者向けアプリケーションサービス
type AdminService interface {
	Status(ctx context.Context) (*adminapp.StatusResponse, error)
	SetBalance(ctx context.Context, req *adminapp.SetBalanceRequest) (*adminapp.StatusResponse, error)
	SetService(ctx context.Context, req *adminapp.SetServiceRequest) (*adminapp.StatusResponse, error)
	Transaction(ctx context.Context, reference string) (*domaintx.Transaction, error)
}

// TokenIssuer 運用者トークンの発行
type TokenIssuer interface {
	GenerateToken(ctx context.Context, req *authapp.GenerateTokenRequest) (*authapp.GenerateTokenResponse, error)
}

// AdminHandler 運用者向けハンドラー
type AdminHandler struct {
	adminService AdminService
	tokenIssuer  TokenIssuer
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(adminService AdminService, tokenIssuer TokenIssuer) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		tokenIssuer:  tokenIssuer,
	}
}

// GenerateToken 運用者トークン生成ハンドラー
// @Summary 運用者トークンを生成
// @Description X-API-Keyで認証し、運用者IDを含むJWTを発行します
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKey
// @Param request body GenerateTokenRequest true "トークン生成リクエスト"
// @Success 200 {object} GenerateTokenResponse "生成成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "APIキー不正"
// @Router /admin/token [post]
func (h *AdminHandler) GenerateToken(c echo.Context) error {
	var reqBody GenerateTokenRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&reqBody); err != nil {
		return err
	}

	resp, err := h.tokenIssuer.GenerateToken(c.Request().Context(), &authapp.GenerateTokenRequest{
		OperatorID: reqBody.OperatorID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, GenerateTokenResponse{
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	})
}

// GetStatus 運用状態取得ハンドラー
// @Summary 残高とサービス状態を取得
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} StatusResponse "運用状態"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/balance [get]
func (h *AdminHandler) GetStatus(c echo.Context) error {
	resp, err := h.adminService.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(resp))
}

// SetBalance 残高更新ハンドラー
// @Summary ベンダー残高を手動で更新
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body SetBalanceRequest true "残高更新リクエスト"
// @Success 200 {object} StatusResponse "更新後の運用状態"
// @Failure 400 {object} ErrorResponse "不正な残高"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/balance [put]
func (h *AdminHandler) SetBalance(c echo.Context) error {
	var reqBody SetBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&reqBody); err != nil {
		return err
	}

	resp, err := h.adminService.SetBalance(c.Request().Context(), &adminapp.SetBalanceRequest{
		Balance: string(reqBody.Balance),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(resp))
}

// SetService サービス停止スイッチ更新ハンドラー
// @Summary サービス停止スイッチを切り替え
// @Description 停止中はWebhookでの供給を行わず、記録をfailedにします
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body SetServiceRequest true "停止スイッチ更新リクエスト"
// @Success 200 {object} StatusResponse "更新後の運用状態"
// @Failure 400 {object} ErrorResponse "activeなし"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/service [put]
func (h *AdminHandler) SetService(c echo.Context) error {
	var reqBody SetServiceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&reqBody); err != nil {
		return err
	}

	resp, err := h.adminService.SetService(c.Request().Context(), &adminapp.SetServiceRequest{
		Active: reqBody.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatusResponse(resp))
}

// GetTransaction トランザクション記録取得ハンドラー
// @Summary 決済リファレンスで記録を取得
// @Tags admin
// @Produce json
// @Security Bearer
// @Param reference path string true "決済リファレンス"
// @Success 200 {object} TransactionResponse "記録"
// @Failure 400 {object} ErrorResponse "不正なリファレンス"
// @Failure 404 {object} ErrorResponse "記録なし"
// @Router /admin/transactions/{reference} [get]
func (h *AdminHandler) GetTransaction(c echo.Context) error {
	txn, err := h.adminService.Transaction(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTransactionResponse(txn))
}

func toTransactionResponse(txn *domaintx.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Success:          true,
		Reference:        txn.Reference(),
		Status:           txn.Status().String(),
		Payment:          txn.Payment(),
		Customer:         txn.Customer(),
		Order:            txn.Order(),
		ProviderResponse: txn.ProviderResponse(),
		ErrorDetail:      txn.ErrorDetail(),
		CreatedAt:        txn.CreatedAt(),
		UpdatedAt:        txn.UpdatedAt(),
	}
	if b := txn.BalanceBefore(); b != nil {
		resp.BalanceBefore = b.StringFixed(2)
	}
	if a := txn.BalanceAfter(); a != nil {
		resp.BalanceAfter = a.StringFixed(2)
	}
	return resp
}

func toStatusResponse(resp *adminapp.StatusResponse) StatusResponse {
	return StatusResponse{
		Success:        true,
		CurrentBalance: resp.CurrentBalance.StringFixed(2),
		ServiceActive:  resp.ServiceActive,
		LastUpdated:    resp.LastUpdated,
	}
}
