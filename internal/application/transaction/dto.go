package transaction

import (
	"paybridge/internal/domain/payment"
	"paybridge/internal/domain/provisioning"
)

// StoreRequest 記録の保存リクエスト
type StoreRequest struct {
	Verification *payment.Verification
	Order        provisioning.Order
	Result       *provisioning.Result // 通信エラー時はnil
	ErrorDetail  string               // 空でなければ pending_manual_processing
}
