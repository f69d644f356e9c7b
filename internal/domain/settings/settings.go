// Package settings 運用設定（ベンダー残高・サービス停止スイッチ）
package settings

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSettingsNotFound 設定行が存在しないエラー
var ErrSettingsNotFound = errors.New("system settings not found")

// SystemSettings ベンダー連携の運用設定
type SystemSettings struct {
	currentBalance decimal.Decimal
	serviceActive  *bool
	lastUpdated    time.Time
}

// NewSystemSettings SystemSettingsを作成
func NewSystemSettings(currentBalance decimal.Decimal, serviceActive *bool, lastUpdated time.Time) *SystemSettings {
	return &SystemSettings{
		currentBalance: currentBalance,
		serviceActive:  serviceActive,
		lastUpdated:    lastUpdated,
	}
}

// CurrentBalance 最後に記録したベンダー残高を返す
func (s *SystemSettings) CurrentBalance() decimal.Decimal {
	return s.currentBalance
}

// IsServiceActive サービスが有効かどうかを返す。
// 明示的に false が設定された場合のみ停止とみなす。
func (s *SystemSettings) IsServiceActive() bool {
	return s.serviceActive == nil || *s.serviceActive
}

// LastUpdated 最終更新日時を返す
func (s *SystemSettings) LastUpdated() time.Time {
	return s.lastUpdated
}

// SettingsRepository 運用設定のリポジトリインターフェース
type SettingsRepository interface {
	// Get 設定を取得（存在しなければ ErrSettingsNotFound）
	Get(ctx context.Context) (*SystemSettings, error)

	// SaveBalance 残高を保存（行がなければ作成）
	SaveBalance(ctx context.Context, balance decimal.Decimal, at time.Time) error

	// SaveServiceActive サービス停止スイッチを保存（行がなければ作成）
	SaveServiceActive(ctx context.Context, active bool, at time.Time) error
}
