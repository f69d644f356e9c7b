package transaction

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var referenceRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.=]{1,100}$`)

// Payment 決済プロセッサが確認した支払い情報
type Payment struct {
	Amount   decimal.Decimal `json:"amount"` // 主通貨単位（GHS）
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	PaidAt   *time.Time      `json:"paid_at,omitempty"`
	Channel  string          `json:"channel,omitempty"`
}

// Customer 支払者の連絡先
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// OrderDetails 注文されたデータ商品
type OrderDetails struct {
	Network     string `json:"network"`
	PhoneNumber string `json:"phone_number"`
	DataAmount  string `json:"data_amount"`
	ProductName string `json:"product_name,omitempty"`
}

// ProviderResponse データ供給ベンダーの応答
type ProviderResponse struct {
	Status           string                 `json:"status,omitempty"`
	OrderID          string                 `json:"order_id,omitempty"`
	Message          string                 `json:"message,omitempty"`
	RemainingBalance string                 `json:"remaining_balance,omitempty"`
	DeliveryNote     string                 `json:"delivery_note,omitempty"`
	ExpectedDelivery string                 `json:"expected_delivery,omitempty"`
	RespondedAt      *time.Time             `json:"responded_at,omitempty"`
	Raw              map[string]interface{} `json:"raw,omitempty"`
}

// Transaction 決済リファレンス単位のトランザクション記録エンティティ
type Transaction struct {
	reference        string
	payment          *Payment
	customer         *Customer
	order            *OrderDetails
	providerResponse *ProviderResponse
	errorDetail      *string
	status           TransactionStatus
	balanceBefore    *decimal.Decimal
	balanceAfter     *decimal.Decimal
	createdAt        time.Time
	updatedAt        time.Time
}

// NewTransaction 供給結果から新しいTransactionを作成する。
// errorDetail が空でなければ決済済み・供給未完了として pending_manual_processing になる。
func NewTransaction(
	reference string,
	payment *Payment,
	customer *Customer,
	order *OrderDetails,
	providerResponse *ProviderResponse,
	errorDetail string,
	now time.Time,
) (*Transaction, error) {
	if !referenceRegex.MatchString(reference) {
		return nil, ErrInvalidReference
	}
	if payment == nil {
		return nil, ErrInvalidTransaction
	}

	status := TransactionStatusCompleted
	var detail *string
	if errorDetail != "" {
		status = TransactionStatusPendingManualProcessing
		detail = &errorDetail
	}

	return &Transaction{
		reference:        reference,
		payment:          payment,
		customer:         customer,
		order:            order,
		providerResponse: providerResponse,
		errorDetail:      detail,
		status:           status,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct 永続化された値からTransactionを復元
func Reconstruct(
	reference string,
	payment *Payment,
	customer *Customer,
	order *OrderDetails,
	providerResponse *ProviderResponse,
	errorDetail *string,
	status TransactionStatus,
	balanceBefore *decimal.Decimal,
	balanceAfter *decimal.Decimal,
	createdAt time.Time,
	updatedAt time.Time,
) *Transaction {
	return &Transaction{
		reference:        reference,
		payment:          payment,
		customer:         customer,
		order:            order,
		providerResponse: providerResponse,
		errorDetail:      errorDetail,
		status:           status,
		balanceBefore:    balanceBefore,
		balanceAfter:     balanceAfter,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ValidReference リファレンスの形式が正しいかどうかを返す
func ValidReference(reference string) bool {
	return referenceRegex.MatchString(reference)
}

// Reference 決済リファレンスを返す
func (t *Transaction) Reference() string {
	return t.reference
}

// Payment 支払い情報を返す
func (t *Transaction) Payment() *Payment {
	return t.payment
}

// Customer 顧客情報を返す
func (t *Transaction) Customer() *Customer {
	return t.customer
}

// Order 注文内容を返す
func (t *Transaction) Order() *OrderDetails {
	return t.order
}

// ProviderResponse ベンダー応答を返す
func (t *Transaction) ProviderResponse() *ProviderResponse {
	return t.providerResponse
}

// ErrorDetail エラー詳細を返す（なければ空文字）
func (t *Transaction) ErrorDetail() string {
	if t.errorDetail == nil {
		return ""
	}
	return *t.errorDetail
}

// Status ステータスを返す
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// BalanceBefore 注文前の残高を返す
func (t *Transaction) BalanceBefore() *decimal.Decimal {
	return t.balanceBefore
}

// BalanceAfter 注文後の残高を返す
func (t *Transaction) BalanceAfter() *decimal.Decimal {
	return t.balanceAfter
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt 更新日時を返す
func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

// RecordBalances 注文前後の残高を記録
func (t *Transaction) RecordBalances(before, after decimal.Decimal, now time.Time) {
	t.balanceBefore = &before
	t.balanceAfter = &after
	t.updatedAt = now
}

// CustomerEmail 顧客のメールアドレスを返す（なければ空文字）
func (t *Transaction) CustomerEmail() string {
	if t.customer == nil {
		return ""
	}
	return t.customer.Email
}

// OrderID ベンダーの注文IDを返す（なければ空文字）
func (t *Transaction) OrderID() string {
	if t.providerResponse == nil {
		return ""
	}
	return t.providerResponse.OrderID
}
