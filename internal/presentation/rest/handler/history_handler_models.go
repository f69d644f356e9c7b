package handler

// TransactionListResponse 取引記録一覧レスポンス
// @Description 取引記録一覧レスポンス（新しい順）
type TransactionListResponse struct {
	Success      bool                  `json:"success" example:"true"`
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"total" example:"120"`
	Limit        int                   `json:"limit" example:"50"`
	Offset       int                   `json:"offset" example:"0"`
}
