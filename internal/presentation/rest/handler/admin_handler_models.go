package handler

import (
	"time"

	domaintx "paybridge/internal/domain/transaction"
)

// StatusResponse 運用状態レスポンス
// @Description 運用状態レスポンス
type StatusResponse struct {
	Success        bool       `json:"success" example:"true"`
	CurrentBalance string     `json:"current_balance" example:"120.50"`
	ServiceActive  bool       `json:"service_active" example:"true"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
}

// SetBalanceRequest 残高更新リクエスト
// @Description 残高更新リクエスト（"GH₵ 1,250.00" 形式も可）
type SetBalanceRequest struct {
	Balance FlexString `json:"balance" validate:"required" swaggertype:"string" example:"1250.00"`
}

// SetServiceRequest サービス停止スイッチ更新リクエスト
// @Description サービス停止スイッチ更新リクエスト
type SetServiceRequest struct {
	Active *bool `json:"active" validate:"required" example:"false"`
}

// TransactionResponse トランザクション記録レスポンス
// @Description トランザクション記録レスポンス
type TransactionResponse struct {
	Success          bool                       `json:"success" example:"true"`
	Reference        string                     `json:"reference" example:"T123456789"`
	Status           string                     `json:"status" example:"pending_manual_processing"`
	Payment          *domaintx.Payment          `json:"payment,omitempty"`
	Customer         *domaintx.Customer         `json:"customer,omitempty"`
	Order            *domaintx.OrderDetails     `json:"order,omitempty"`
	ProviderResponse *domaintx.ProviderResponse `json:"provider_response,omitempty"`
	ErrorDetail      string                     `json:"error_detail,omitempty"`
	BalanceBefore    string                     `json:"balance_before,omitempty" example:"120.50"`
	BalanceAfter     string                     `json:"balance_after,omitempty" example:"95.50"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// GenerateTokenRequest 運用者トークン生成リクエスト
// @Description 運用者トークン生成リクエスト
type GenerateTokenRequest struct {
	OperatorID string `json:"operator_id" validate:"required,max=64" example:"ops-1"`
}

// GenerateTokenResponse トークン生成レスポンス
// @Description トークン生成レスポンス
type GenerateTokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJvcGVyYXRvcl9pZCI6Im9wcy0xIn0.signature"`
	ExpiresIn int64  `json:"expires_in" example:"3600"`
	TokenType string `json:"token_type" example:"Bearer"`
}
