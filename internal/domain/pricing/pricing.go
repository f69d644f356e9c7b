// Package pricing データパッケージの価格表
package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPriceNotFound 有効な価格が登録されていないエラー
var ErrPriceNotFound = errors.New("package price not found")

// PackagePrice ネットワークとデータ量ごとの価格
type PackagePrice struct {
	network    string
	dataAmount string
	price      decimal.Decimal
	active     bool
}

// NewPackagePrice PackagePriceを作成
func NewPackagePrice(network, dataAmount string, price decimal.Decimal, active bool) *PackagePrice {
	return &PackagePrice{
		network:    network,
		dataAmount: dataAmount,
		price:      price,
		active:     active,
	}
}

// Network ネットワークを返す
func (p *PackagePrice) Network() string {
	return p.network
}

// DataAmount データ量を返す
func (p *PackagePrice) DataAmount() string {
	return p.dataAmount
}

// Price 価格を返す
func (p *PackagePrice) Price() decimal.Decimal {
	return p.price
}

// IsActive 販売中かどうかを返す
func (p *PackagePrice) IsActive() bool {
	return p.active
}

// PricingRepository 価格表のリポジトリインターフェース（読み取り専用）
type PricingRepository interface {
	// FindActive 販売中の価格を取得（なければ ErrPriceNotFound）
	FindActive(ctx context.Context, network, dataAmount string) (*PackagePrice, error)
}
