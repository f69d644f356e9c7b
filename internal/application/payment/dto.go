package payment

import "github.com/shopspring/decimal"

// InitializeRequest 決済セッション作成リクエスト
type InitializeRequest struct {
	Email string
	// Amount 最小通貨単位。JSONの数値・数値文字列どちらでも受け取れるよう文字列で持つ
	Amount      string
	CallbackURL string
	Metadata    map[string]interface{}
	Channels    []string
}

// InitializeResponse 決済セッション作成レスポンス
type InitializeResponse struct {
	Reference        string
	AccessCode       string
	AuthorizationURL string
	PublicKey        string
}

// VerifyRequest 決済確認リクエスト
type VerifyRequest struct {
	Reference string
}

// VerifyResponse 決済確認レスポンス
type VerifyResponse struct {
	// Paystack プロセッサの data オブジェクト
	Paystack map[string]interface{}
	// Order 供給を行わなかった場合はnil
	Order *OrderResult
}

// OrderResult 供給結果
type OrderResult struct {
	OrderID          string
	Status           string
	ErrorDetail      string
	AlreadyFulfilled bool
}

// CheckBalanceRequest 在庫確認リクエスト
type CheckBalanceRequest struct {
	Network    string
	DataAmount string
}

// CheckBalanceResponse 在庫確認レスポンス
type CheckBalanceResponse struct {
	HasBalance     bool
	Message        string
	CurrentBalance *decimal.Decimal
	Price          *decimal.Decimal
}
