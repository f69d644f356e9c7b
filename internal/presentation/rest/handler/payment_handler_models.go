package handler

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FlexString JSONの数値と文字列の両方を受け取る文字列
type FlexString string

// UnmarshalJSON 数値はそのままの表記で文字列として保持する
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// InitializeRequest 決済セッション作成リクエスト
// @Description 決済セッション作成リクエスト（amountは最小通貨単位）
type InitializeRequest struct {
	Email       string                 `json:"email" example:"buyer@example.com"`
	Amount      FlexString             `json:"amount" swaggertype:"string" example:"1250"`
	CallbackURL string                 `json:"callback_url" validate:"omitempty,url" example:"https://shop.example.com/paid"`
	Metadata    map[string]interface{} `json:"metadata"`
	Channels    []string               `json:"channels" validate:"omitempty,dive,oneof=card bank ussd qr mobile_money bank_transfer eft apple_pay"`
}

// InitializeResponse 決済セッション作成レスポンス
// @Description 決済セッション作成レスポンス
type InitializeResponse struct {
	Success          bool   `json:"success" example:"true"`
	Reference        string `json:"reference" example:"T123456789"`
	AccessCode       string `json:"access_code" example:"0peioxfhpn"`
	AuthorizationURL string `json:"authorization_url" example:"https://checkout.paystack.com/0peioxfhpn"`
	PublicKey        string `json:"publicKey" example:"pk_test_xxx"`
}

// VerifyRequest 決済確認リクエスト
// @Description 決済確認リクエスト
type VerifyRequest struct {
	Reference string `json:"reference" validate:"omitempty,max=100" example:"T123456789"`
}

// OrderResult 供給結果
// @Description 供給結果（pending_manual_processingは決済済み・供給未完了）
type OrderResult struct {
	OrderID          string `json:"order_id,omitempty" example:"ord_123"`
	Status           string `json:"status" example:"success"`
	ErrorDetail      string `json:"error_detail,omitempty"`
	AlreadyFulfilled bool   `json:"already_fulfilled,omitempty"`
}

// VerifyResponse 決済確認レスポンス
// @Description 決済確認レスポンス
type VerifyResponse struct {
	Success  bool                   `json:"success" example:"true"`
	Paystack map[string]interface{} `json:"paystack"`
	Order    *OrderResult           `json:"order,omitempty"`
}

// CheckBalanceRequest 在庫確認リクエスト
// @Description 在庫確認リクエスト
type CheckBalanceRequest struct {
	Network    string     `json:"network" example:"MTN"`
	DataAmount FlexString `json:"data_amount" swaggertype:"string" example:"5"`
}

// CheckBalanceResponse 在庫確認レスポンス
// @Description 在庫確認レスポンス
type CheckBalanceResponse struct {
	Success        bool             `json:"success" example:"true"`
	HasBalance     bool             `json:"hasBalance" example:"true"`
	Message        string           `json:"message" example:"Balance available"`
	CurrentBalance *decimal.Decimal `json:"currentBalance,omitempty" swaggertype:"string" example:"120.50"`
	Price          *decimal.Decimal `json:"price,omitempty" swaggertype:"string" example:"25.00"`
}

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Success bool        `json:"success" example:"false"`
	Error   string      `json:"error,omitempty" example:"invalid"`
	Message string      `json:"message" example:"Invalid email or amount"`
	Detail  interface{} `json:"detail,omitempty"`
}
