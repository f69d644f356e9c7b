package fulfillment

import (
	"paybridge/internal/domain/provisioning"
	"paybridge/internal/domain/transaction"
)

// Outcome 供給の結果
type Outcome struct {
	Reference   string
	OrderID     string
	OrderStatus string
	// ErrorDetail 空でなければ決済済み・供給未完了
	ErrorDetail string
	// AlreadyFulfilled 完了済みの記録を返しただけでベンダーは呼んでいない
	AlreadyFulfilled bool
	Result           *provisioning.Result
	Transaction      *transaction.Transaction
}

// Pending 手動対応が必要かどうか
func (o *Outcome) Pending() bool {
	return o.ErrorDetail != ""
}

func alreadyFulfilled(txn *transaction.Transaction) *Outcome {
	outcome := &Outcome{
		Reference:        txn.Reference(),
		OrderID:          txn.OrderID(),
		AlreadyFulfilled: true,
		Transaction:      txn,
	}
	if pr := txn.ProviderResponse(); pr != nil {
		outcome.OrderStatus = pr.Status
	}
	return outcome
}
