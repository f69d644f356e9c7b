// Package payment 決済プロセッサ（Paystack）との契約
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatusSuccess 決済完了を表すプロセッサのステータス
const StatusSuccess = "success"

// EventChargeSuccess 決済成功のWebhookイベント名
const EventChargeSuccess = "charge.success"

// minorUnitsPerMajor 1 GHS あたりの最小通貨単位（pesewa）
var minorUnitsPerMajor = decimal.NewFromInt(100)

var (
	// ErrGatewayNotConfigured シークレットキーが設定されていないエラー
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	// ErrGatewayRejected プロセッサが要求を拒否したエラー
	ErrGatewayRejected = errors.New("payment gateway rejected request")
	// ErrInvalidSignature Webhook署名が一致しないエラー
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// RejectedError プロセッサが status=false を返した場合のエラー（応答本文を保持）
type RejectedError struct {
	Op      string
	Message string
	Payload map[string]interface{}
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Message)
}

// Is ErrGatewayRejected と一致する
func (e *RejectedError) Is(target error) bool {
	return target == ErrGatewayRejected
}

// InitializeRequest 決済セッション作成要求
type InitializeRequest struct {
	Email       string
	Amount      int64 // 最小通貨単位
	Currency    string
	CallbackURL string
	Metadata    map[string]interface{}
	Channels    []string
}

// Session 作成された決済セッション
type Session struct {
	Reference        string
	AccessCode       string
	AuthorizationURL string
}

// Customer プロセッサが保持する支払者情報
type Customer struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// FullName 氏名を返す
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Verification 決済確認の結果
type Verification struct {
	Reference string
	Status    string
	Amount    int64 // 最小通貨単位
	Currency  string
	PaidAt    *time.Time
	Channel   string
	Customer  Customer
	Metadata  map[string]interface{}
	// Raw プロセッサの data オブジェクトそのもの（応答にそのまま返す）
	Raw map[string]interface{}
}

// Succeeded 決済が完了しているかどうかを返す
func (v *Verification) Succeeded() bool {
	return v.Status == StatusSuccess
}

// AmountMajor 主通貨単位の金額を返す
func (v *Verification) AmountMajor() decimal.Decimal {
	return decimal.NewFromInt(v.Amount).Div(minorUnitsPerMajor)
}

// Event Webhookで受け取るイベント
type Event struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Reference イベントの決済リファレンスを返す
func (e *Event) Reference() string {
	if e.Data == nil {
		return ""
	}
	ref, _ := e.Data["reference"].(string)
	return ref
}

// Gateway 決済プロセッサのインターフェース
type Gateway interface {
	// Configured シークレットキーが設定されているかどうか
	Configured() bool

	// PublicKey クライアントに渡す公開キーを返す
	PublicKey() string

	// Initialize 決済セッションを作成
	Initialize(ctx context.Context, req InitializeRequest) (*Session, error)

	// Verify リファレンスで決済を確認
	Verify(ctx context.Context, reference string) (*Verification, error)

	// VerifySignature Webhook本文の署名を検証
	VerifySignature(body []byte, signature string) bool
}
