package admin

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusResponse 運用状態レスポンス
type StatusResponse struct {
	CurrentBalance decimal.Decimal
	ServiceActive  bool
	LastUpdated    *time.Time // 設定行がなければnil
}

// SetBalanceRequest 残高の手動更新リクエスト
type SetBalanceRequest struct {
	Balance string // "GH₵ 1,250.00" 形式も可
}

// SetServiceRequest サービス停止スイッチ更新リクエスト
type SetServiceRequest struct {
	Active *bool
}
