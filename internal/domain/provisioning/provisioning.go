// Package provisioning データバンドル供給ベンダー（InstantData）との契約
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrProviderNotConfigured APIキーまたはURLが設定されていないエラー
	ErrProviderNotConfigured = errors.New("provisioning provider not configured")
	// ErrOrderRejected ベンダーが注文を拒否したエラー
	ErrOrderRejected = errors.New("provisioning order rejected")
)

// RejectedError ベンダーが status=error または success=false を返した場合のエラー
type RejectedError struct {
	Message string
	Result  *Result
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s", e.Message)
}

// Is ErrOrderRejected と一致する
func (e *RejectedError) Is(target error) bool {
	return target == ErrOrderRejected
}

// Order データバンドル注文
type Order struct {
	Network     string
	PhoneNumber string
	DataAmount  string
	ProductName string
}

// Result ベンダーの応答
type Result struct {
	Success          *bool
	Status           string
	OrderID          string
	Message          string
	DeliveryNote     string
	ExpectedDelivery string
	Raw              map[string]interface{}
}

// Failed ベンダーが失敗を報告しているかどうかを返す
func (r *Result) Failed() bool {
	if r == nil {
		return true
	}
	if r.Status == "error" {
		return true
	}
	return r.Success != nil && !*r.Success
}

// Networks 供給対象のネットワーク集合（大文字小文字を区別しない）
type Networks struct {
	names map[string]struct{}
}

// NewNetworks Networksを作成
func NewNetworks(names []string) Networks {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.ToUpper(strings.TrimSpace(n)); n != "" {
			set[n] = struct{}{}
		}
	}
	return Networks{names: set}
}

// Supports ネットワークが供給対象かどうかを返す
func (n Networks) Supports(network string) bool {
	_, ok := n.names[strings.ToUpper(strings.TrimSpace(network))]
	return ok
}

// OrderFromMetadata 決済メタデータから注文を組み立てる。
// ネットワーク・電話番号・データ量が揃い、ネットワークが対象のときだけ ok=true。
func OrderFromMetadata(metadata map[string]interface{}, supported Networks) (Order, bool) {
	order := Order{
		Network:     metadataString(metadata, "network"),
		PhoneNumber: metadataString(metadata, "phone_number"),
		DataAmount:  metadataString(metadata, "data_amount"),
		ProductName: metadataString(metadata, "product_name"),
	}
	if order.Network == "" || order.PhoneNumber == "" || order.DataAmount == "" {
		return order, false
	}
	if !supported.Supports(order.Network) {
		return order, false
	}
	return order, true
}

// AvailabilityQuery 事前確認に必要な項目（ネットワークとデータ量）をメタデータから取り出す
func AvailabilityQuery(metadata map[string]interface{}) (Order, bool) {
	order := Order{
		Network:    metadataString(metadata, "network"),
		DataAmount: metadataString(metadata, "data_amount"),
	}
	return order, order.Network != "" && order.DataAmount != ""
}

// metadataString メタデータの値を文字列として取り出す（数値も受け付ける）
func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	switch v := metadata[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Provider データ供給ベンダーのインターフェース
type Provider interface {
	// Configured APIキーとURLが設定されているかどうか
	Configured() bool

	// PlaceOrder 注文を確定する
	PlaceOrder(ctx context.Context, order Order) (*Result, error)

	// CheckAvailability 残高を減らさずに注文可能かを確認する（check_only）
	CheckAvailability(ctx context.Context, order Order) (*Result, error)
}
