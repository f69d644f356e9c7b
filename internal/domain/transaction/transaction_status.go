package transaction

import (
	"fmt"
)

// TransactionStatus トランザクション全体のステータスを表す値オブジェクト
type TransactionStatus string

const (
	TransactionStatusCompleted               TransactionStatus = "completed"                 // 決済・データ供給とも完了
	TransactionStatusFailed                  TransactionStatus = "failed"                    // 供給を行わず失敗扱い
	TransactionStatusPendingManualProcessing TransactionStatus = "pending_manual_processing" // 決済済み・供給は手動対応待ち
)

// NewTransactionStatus 新しいTransactionStatusを作成
func NewTransactionStatus(s string) (TransactionStatus, error) {
	ts := TransactionStatus(s)
	if !ts.Valid() {
		return "", fmt.Errorf("invalid transaction status: %s", s)
	}
	return ts, nil
}

// String 文字列表現を返す
func (ts TransactionStatus) String() string {
	return string(ts)
}

// Valid 有効なトランザクションステータスかどうかを返す
func (ts TransactionStatus) Valid() bool {
	switch ts {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusPendingManualProcessing:
		return true
	default:
		return false
	}
}

// IsCompleted 完了状態かどうかを返す
func (ts TransactionStatus) IsCompleted() bool {
	return ts == TransactionStatusCompleted
}

// IsFailed 失敗状態かどうかを返す
func (ts TransactionStatus) IsFailed() bool {
	return ts == TransactionStatusFailed
}

// NeedsManualProcessing 運用者の手動対応が必要かどうかを返す
func (ts TransactionStatus) NeedsManualProcessing() bool {
	return ts == TransactionStatusPendingManualProcessing
}
