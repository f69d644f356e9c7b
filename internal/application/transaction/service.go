// Package transaction 取引記録と運用設定の読み書きをまとめたストア
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/balance"
	"paybridge/internal/domain/payment"
	"paybridge/internal/domain/pricing"
	"paybridge/internal/domain/provisioning"
	"paybridge/internal/domain/settings"
	domaintx "paybridge/internal/domain/transaction"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

// TransactionStore 取引記録・残高・停止スイッチ・価格表へのアクセス
type TransactionStore struct {
	transactionRepo domaintx.TransactionRepository
	settingsRepo    settings.SettingsRepository
	pricingRepo     pricing.PricingRepository
	txManager       domaintx.TransactionManager
	logger          *otelinfra.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

// NewTransactionStore 新しいTransactionStoreを作成
func NewTransactionStore(
	transactionRepo domaintx.TransactionRepository,
	settingsRepo settings.SettingsRepository,
	pricingRepo pricing.PricingRepository,
	txManager domaintx.TransactionManager,
	logger *otelinfra.Logger,
) *TransactionStore {
	return &TransactionStore{
		transactionRepo: transactionRepo,
		settingsRepo:    settingsRepo,
		pricingRepo:     pricingRepo,
		txManager:       txManager,
		logger:          logger.With(map[string]interface{}{"component": "transaction-store"}),
		tracer:          otel.Tracer("transaction-store"),
		now:             time.Now,
	}
}

// Store 確認済みの決済と供給結果から記録を組み立て、リファレンスをキーに保存する
func (s *TransactionStore) Store(ctx context.Context, req *StoreRequest) (*domaintx.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.Store")
	defer span.End()

	span.SetAttributes(attribute.String("reference", req.Verification.Reference))

	now := s.now().UTC()
	txn, err := domaintx.NewTransaction(
		req.Verification.Reference,
		paymentSection(req.Verification),
		customerSection(req.Verification),
		orderSection(req.Order),
		providerSection(req.Result, now),
		req.ErrorDetail,
		now,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to build transaction record", err, map[string]interface{}{
			"reference": req.Verification.Reference,
		})
		return nil, err
	}

	if err := s.transactionRepo.Upsert(ctx, txn); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to store transaction", err, map[string]interface{}{
			"reference": txn.Reference(),
			"status":    txn.Status().String(),
		})
		return txn, fmt.Errorf("failed to store transaction: %w", err)
	}

	s.logger.Info(ctx, "Transaction stored", map[string]interface{}{
		"reference": txn.Reference(),
		"status":    txn.Status().String(),
	})
	return txn, nil
}

// Find リファレンスで記録を取得
func (s *TransactionStore) Find(ctx context.Context, reference string) (*domaintx.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.Find")
	defer span.End()

	txn, err := s.transactionRepo.FindByReference(ctx, reference)
	if err != nil {
		if !errors.Is(err, domaintx.ErrTransactionNotFound) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.logger.Error(ctx, "Failed to find transaction", err, map[string]interface{}{
				"reference": reference,
			})
		}
		return nil, err
	}
	return txn, nil
}

// List 新しい順に記録を取得し、総件数も返す
func (s *TransactionStore) List(ctx context.Context, status domaintx.TransactionStatus, limit, offset int) ([]*domaintx.Transaction, int, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.List")
	defer span.End()

	txns, total, err := s.transactionRepo.FindAll(ctx, status, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list transactions", err, map[string]interface{}{
			"status": status.String(),
			"limit":  limit,
			"offset": offset,
		})
		return nil, 0, err
	}
	return txns, total, nil
}

// MarkFailed 記録をfailedにして理由を残す（記録がなければ作成）
func (s *TransactionStore) MarkFailed(ctx context.Context, reference, reason string) error {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.MarkFailed")
	defer span.End()

	if err := s.transactionRepo.MarkFailed(ctx, reference, reason, s.now().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to mark transaction failed", err, map[string]interface{}{
			"reference": reference,
			"reason":    reason,
		})
		return err
	}

	s.logger.Warn(ctx, "Transaction marked failed", map[string]interface{}{
		"reference": reference,
		"reason":    reason,
	})
	return nil
}

// GetBalance 記録済みのベンダー残高を返す。設定行がなければゼロ
func (s *TransactionStore) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.GetBalance")
	defer span.End()

	current, err := s.settingsRepo.Get(ctx)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		s.logger.Warn(ctx, "System settings not found, using zero balance", nil)
		return decimal.Zero, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to read balance", err, nil)
		return decimal.Zero, err
	}
	return current.CurrentBalance(), nil
}

// SetBalance ベンダー残高を保存
func (s *TransactionStore) SetBalance(ctx context.Context, value decimal.Decimal) error {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.SetBalance")
	defer span.End()

	if err := s.settingsRepo.SaveBalance(ctx, value, s.now().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to update balance", err, map[string]interface{}{
			"balance": value.StringFixed(2),
		})
		return err
	}

	s.logger.Info(ctx, "Balance updated", map[string]interface{}{
		"balance": value.StringFixed(2),
	})
	return nil
}

// RecordBalances 取引の注文前後残高とシステム残高を同一DBトランザクションで更新
func (s *TransactionStore) RecordBalances(ctx context.Context, reference string, before, after decimal.Decimal) error {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.RecordBalances")
	defer span.End()

	span.SetAttributes(attribute.String("reference", reference))

	now := s.now().UTC()
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.transactionRepo.UpdateBalances(ctx, reference, before, after, now); err != nil {
			return fmt.Errorf("failed to record transaction balances: %w", err)
		}
		if err := s.settingsRepo.SaveBalance(ctx, after, now); err != nil {
			return fmt.Errorf("failed to update system balance: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to record balances", err, map[string]interface{}{
			"reference": reference,
			"before":    before.StringFixed(2),
			"after":     after.StringFixed(2),
		})
		return err
	}

	s.logger.Info(ctx, "Balances recorded", map[string]interface{}{
		"reference": reference,
		"before":    before.StringFixed(2),
		"after":     after.StringFixed(2),
	})
	return nil
}

// GetPricing 販売中の価格を取得
func (s *TransactionStore) GetPricing(ctx context.Context, network, dataAmount string) (*pricing.PackagePrice, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.GetPricing")
	defer span.End()

	span.SetAttributes(
		attribute.String("network", network),
		attribute.String("data_amount", dataAmount),
	)

	price, err := s.pricingRepo.FindActive(ctx, network, dataAmount)
	if err != nil {
		if !errors.Is(err, pricing.ErrPriceNotFound) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.logger.Error(ctx, "Failed to read pricing", err, map[string]interface{}{
				"network":     network,
				"data_amount": dataAmount,
			})
		}
		return nil, err
	}
	return price, nil
}

// IsServiceActive サービスが有効かどうか。設定行がない、または読めない場合は停止とみなす
func (s *TransactionStore) IsServiceActive(ctx context.Context) bool {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.IsServiceActive")
	defer span.End()

	current, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if !errors.Is(err, settings.ErrSettingsNotFound) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		s.logger.Error(ctx, "Failed to read service status, treating as inactive", err, nil)
		return false
	}
	return current.IsServiceActive()
}

// Settings 運用設定をそのまま返す
func (s *TransactionStore) Settings(ctx context.Context) (*settings.SystemSettings, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.Settings")
	defer span.End()

	current, err := s.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, settings.ErrSettingsNotFound) {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to read system settings", err, nil)
	}
	return current, err
}

// SetServiceActive サービス停止スイッチを保存
func (s *TransactionStore) SetServiceActive(ctx context.Context, active bool) error {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.SetServiceActive")
	defer span.End()

	span.SetAttributes(attribute.Bool("active", active))

	if err := s.settingsRepo.SaveServiceActive(ctx, active, s.now().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to update service status", err, map[string]interface{}{
			"active": active,
		})
		return err
	}

	s.logger.Warn(ctx, "Service status changed", map[string]interface{}{
		"active": active,
	})
	return nil
}

func paymentSection(v *payment.Verification) *domaintx.Payment {
	return &domaintx.Payment{
		Amount:   v.AmountMajor(),
		Currency: v.Currency,
		Status:   v.Status,
		PaidAt:   v.PaidAt,
		Channel:  v.Channel,
	}
}

func customerSection(v *payment.Verification) *domaintx.Customer {
	if v.Customer.Email == "" && v.Customer.Phone == "" && v.Customer.FullName() == "" {
		return nil
	}
	return &domaintx.Customer{
		Email: v.Customer.Email,
		Name:  v.Customer.FullName(),
		Phone: v.Customer.Phone,
	}
}

func orderSection(order provisioning.Order) *domaintx.OrderDetails {
	if order.Network == "" && order.PhoneNumber == "" && order.DataAmount == "" {
		return nil
	}
	return &domaintx.OrderDetails{
		Network:     order.Network,
		PhoneNumber: order.PhoneNumber,
		DataAmount:  order.DataAmount,
		ProductName: order.ProductName,
	}
}

func providerSection(result *provisioning.Result, now time.Time) *domaintx.ProviderResponse {
	if result == nil {
		return nil
	}
	return &domaintx.ProviderResponse{
		Status:           result.Status,
		OrderID:          result.OrderID,
		Message:          result.Message,
		RemainingBalance: balance.RawString(result.Raw),
		DeliveryNote:     result.DeliveryNote,
		ExpectedDelivery: result.ExpectedDelivery,
		RespondedAt:      &now,
		Raw:              result.Raw,
	}
}

// Draft 保存に失敗した場合でも通知に使えるよう、StoreRequest から未検証の記録を組み立てる
func Draft(req *StoreRequest, now time.Time) *domaintx.Transaction {
	status := domaintx.TransactionStatusCompleted
	var detail *string
	if req.ErrorDetail != "" {
		status = domaintx.TransactionStatusPendingManualProcessing
		d := req.ErrorDetail
		detail = &d
	}
	return domaintx.Reconstruct(
		req.Verification.Reference,
		paymentSection(req.Verification),
		customerSection(req.Verification),
		orderSection(req.Order),
		providerSection(req.Result, now),
		detail,
		status,
		nil,
		nil,
		now,
		now,
	)
}
