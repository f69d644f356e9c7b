package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRepository トランザクション記録のリポジトリインターフェース
type TransactionRepository interface {
	// Upsert リファレンスをキーに保存する。既存レコードがあれば空でない項目だけを上書きする
	Upsert(ctx context.Context, t *Transaction) error

	// FindByReference リファレンスでトランザクションを取得
	FindByReference(ctx context.Context, reference string) (*Transaction, error)

	// FindAll 新しい順に取得し、総件数も返す（statusが空なら全件）
	FindAll(ctx context.Context, status TransactionStatus, limit, offset int) ([]*Transaction, int, error)

	// MarkFailed ステータスをfailedにして理由を記録する（レコードがなければ作成）
	MarkFailed(ctx context.Context, reference, reason string, at time.Time) error

	// UpdateBalances 注文前後の残高を記録
	UpdateBalances(ctx context.Context, reference string, before, after decimal.Decimal, at time.Time) error
}

// TransactionManager トランザクション管理インターフェース
type TransactionManager interface {
	// WithTransaction DBトランザクション内で関数を実行（ctx経由でリポジトリに伝播）
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
