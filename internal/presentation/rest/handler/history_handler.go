package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	historyapp "paybridge/internal/application/history"
)

// HistoryService 取引記録一覧のアプリケーションサービス
type HistoryService interface {
	ListTransactions(ctx context.Context, req *historyapp.ListTransactionsRequest) (*historyapp.ListTransactionsResponse, error)
}

// HistoryHandler 履歴関連ハンドラー
type HistoryHandler struct {
	historyService HistoryService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// ListTransactions 取引記録一覧取得ハンドラー
// @Summary 取引記録を一覧取得
// @Description 新しい順に取引記録を返します。status=pending_manual_processing で手動対応待ちを絞り込めます
// @Tags admin
// @Produce json
// @Security Bearer
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0)
// @Param status query string false "ステータスでフィルタ（completed/failed/pending_manual_processing）"
// @Success 200 {object} TransactionListResponse "一覧"
// @Failure 400 {object} ErrorResponse "不正なパラメータ"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/transactions [get]
func (h *HistoryHandler) ListTransactions(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
	}

	resp, err := h.historyService.ListTransactions(c.Request().Context(), &historyapp.ListTransactionsRequest{
		Limit:  limit,
		Offset: offset,
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}

	items := make([]TransactionResponse, 0, len(resp.Transactions))
	for _, txn := range resp.Transactions {
		items = append(items, toTransactionResponse(txn))
	}

	return c.JSON(http.StatusOK, TransactionListResponse{
		Success:      true,
		Transactions: items,
		Total:        resp.Total,
		Limit:        resp.Limit,
		Offset:       resp.Offset,
	})
}

// queryInt 未指定なら0
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
