package history

import domaintx "paybridge/internal/domain/transaction"

// ListTransactionsRequest 取引記録一覧の取得リクエスト
type ListTransactionsRequest struct {
	Limit  int
	Offset int
	Status string // optional: "completed", "failed", "pending_manual_processing"
}

// ListTransactionsResponse 取引記録一覧
type ListTransactionsResponse struct {
	Transactions []*domaintx.Transaction
	Total        int
	Limit        int
	Offset       int
}
