// Package fulfillment 決済確認後のデータバンドル供給
package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apptx "paybridge/internal/application/transaction"
	"paybridge/internal/domain/balance"
	"paybridge/internal/domain/payment"
	"paybridge/internal/domain/provisioning"
	"paybridge/internal/domain/transaction"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

// Store 供給で使う記録ストア
type Store interface {
	Find(ctx context.Context, reference string) (*transaction.Transaction, error)
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	Store(ctx context.Context, req *apptx.StoreRequest) (*transaction.Transaction, error)
	RecordBalances(ctx context.Context, reference string, before, after decimal.Decimal) error
}

// Notifier 供給結果の通知
type Notifier interface {
	NotifyCustomer(ctx context.Context, email string, txn *transaction.Transaction, errText string) error
	NotifyOperator(ctx context.Context, txn *transaction.Transaction, errText string) error
}

// Service 供給サービス
type Service struct {
	provider provisioning.Provider
	store    Store
	notifier Notifier
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
	locks    *keyedMutex
	now      func() time.Time
}

// NewService 新しいServiceを作成
func NewService(
	provider provisioning.Provider,
	store Store,
	notifier Notifier,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Service {
	return &Service{
		provider: provider,
		store:    store,
		notifier: notifier,
		logger:   logger.With(map[string]interface{}{"component": "fulfillment"}),
		metrics:  metrics,
		tracer:   otel.Tracer("fulfillment-service"),
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Fulfil 注文をベンダーに送り、結果を保存・通知する。
// 失敗は呼び出し元に返さず Outcome に pending_manual_processing として載せる。
func (s *Service) Fulfil(ctx context.Context, verification *payment.Verification, order provisioning.Order) *Outcome {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.Fulfil")
	defer span.End()

	reference := verification.Reference
	span.SetAttributes(
		attribute.String("reference", reference),
		attribute.String("network", order.Network),
		attribute.String("data_amount", order.DataAmount),
	)

	unlock := s.locks.Lock(reference)
	defer unlock()

	if existing := s.completedRecord(ctx, reference); existing != nil {
		s.logger.Info(ctx, "Order already fulfilled, skipping vendor call", map[string]interface{}{
			"reference": reference,
			"order_id":  existing.OrderID(),
		})
		s.metrics.RecordProvisioningOrder(ctx, order.Network, "duplicate")
		span.SetStatus(otelcodes.Ok, "already fulfilled")
		return alreadyFulfilled(existing)
	}

	before, err := s.store.GetBalance(ctx)
	if err != nil {
		before = decimal.Zero
	}

	s.logger.Info(ctx, "Placing data order", map[string]interface{}{
		"reference":   reference,
		"network":     order.Network,
		"data_amount": order.DataAmount,
	})

	result, err := s.provider.PlaceOrder(ctx, order)
	if err != nil {
		return s.handleFailure(ctx, span, verification, order, result, err)
	}

	s.metrics.RecordProvisioningOrder(ctx, order.Network, "success")

	txn, storeErr := s.save(ctx, &apptx.StoreRequest{
		Verification: verification,
		Order:        order,
		Result:       result,
	})
	s.notify(ctx, verification, txn, "")

	if storeErr == nil {
		s.recordBalance(ctx, reference, before, result)
	}

	s.logger.Info(ctx, "Data order placed", map[string]interface{}{
		"reference": reference,
		"order_id":  result.OrderID,
		"status":    result.Status,
	})
	span.SetStatus(otelcodes.Ok, "order placed")

	return &Outcome{
		Reference:   reference,
		OrderID:     result.OrderID,
		OrderStatus: result.Status,
		Result:      result,
		Transaction: txn,
	}
}

func (s *Service) handleFailure(
	ctx context.Context,
	span trace.Span,
	verification *payment.Verification,
	order provisioning.Order,
	result *provisioning.Result,
	err error,
) *Outcome {
	detail := errorDetail(err)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, detail)

	s.metrics.RecordProvisioningOrder(ctx, order.Network, "failed")
	s.metrics.RecordError(ctx, "provisioning_failed")
	s.logger.Error(ctx, "Data order failed, manual processing required", err, map[string]interface{}{
		"reference": verification.Reference,
		"network":   order.Network,
	})

	txn, _ := s.save(ctx, &apptx.StoreRequest{
		Verification: verification,
		Order:        order,
		Result:       result,
		ErrorDetail:  detail,
	})
	s.notify(ctx, verification, txn, detail)

	return &Outcome{
		Reference:   verification.Reference,
		OrderStatus: transaction.TransactionStatusPendingManualProcessing.String(),
		ErrorDetail: detail,
		Result:      result,
		Transaction: txn,
	}
}

// save 記録を保存する。記録を組み立てられなかった場合も通知用に確認済みの決済内容から記録を返す
func (s *Service) save(ctx context.Context, req *apptx.StoreRequest) (*transaction.Transaction, error) {
	txn, err := s.store.Store(ctx, req)
	if txn == nil {
		txn = apptx.Draft(req, s.now().UTC())
	}
	return txn, err
}

// completedRecord 同じリファレンスで完了済みの記録があれば返す
func (s *Service) completedRecord(ctx context.Context, reference string) *transaction.Transaction {
	existing, err := s.store.Find(ctx, reference)
	if err != nil {
		return nil
	}
	if existing.Status() != transaction.TransactionStatusCompleted {
		return nil
	}
	return existing
}

// notify 顧客と運用者に通知。送信エラーはログとメトリクスにのみ残す
func (s *Service) notify(ctx context.Context, verification *payment.Verification, txn *transaction.Transaction, errText string) {
	email := txn.CustomerEmail()
	if email == "" {
		email = verification.Customer.Email
	}
	_ = s.notifier.NotifyCustomer(ctx, email, txn, errText)
	_ = s.notifier.NotifyOperator(ctx, txn, errText)
}

// recordBalance ベンダー応答から残高を読み取り記録する
func (s *Service) recordBalance(ctx context.Context, reference string, before decimal.Decimal, result *provisioning.Result) {
	after, ok, err := balance.Extract(result.Raw)
	if !ok {
		s.logger.Warn(ctx, "Vendor response has no balance field", map[string]interface{}{
			"reference": reference,
		})
		return
	}
	if err != nil {
		s.logger.Warn(ctx, "Could not parse vendor balance, recording zero", map[string]interface{}{
			"reference": reference,
			"raw":       balance.RawString(result.Raw),
			"error":     err.Error(),
		})
	}

	if err := s.store.RecordBalances(ctx, reference, before, after); err != nil {
		return
	}
	balanceFloat, _ := after.Float64()
	s.metrics.RecordSystemBalance(ctx, balanceFloat)
}

// errorDetail ベンダーのエラーメッセージを優先して失敗理由を返す
func errorDetail(err error) string {
	var rejected *provisioning.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return err.Error()
}
