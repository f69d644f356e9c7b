// Package admin 運用者向けの残高・サービス停止スイッチ・記録照会
package admin

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/balance"
	"paybridge/internal/domain/settings"
	domaintx "paybridge/internal/domain/transaction"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/shared/apperror"
)

// Store 運用APIで使うストア
type Store interface {
	Settings(ctx context.Context) (*settings.SystemSettings, error)
	SetBalance(ctx context.Context, value decimal.Decimal) error
	SetServiceActive(ctx context.Context, active bool) error
	Find(ctx context.Context, reference string) (*domaintx.Transaction, error)
}

// AdminApplicationService 運用者向けアプリケーションサービス
type AdminApplicationService struct {
	store   Store
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewAdminApplicationService 新しいAdminApplicationServiceを作成
func NewAdminApplicationService(store Store, logger *otelinfra.Logger, metrics *otelinfra.Metrics) *AdminApplicationService {
	return &AdminApplicationService{
		store:   store,
		logger:  logger.With(map[string]interface{}{"component": "admin"}),
		metrics: metrics,
		tracer:  otel.Tracer("admin-service"),
	}
}

// Status 現在の残高とサービス状態を返す
func (s *AdminApplicationService) Status(ctx context.Context) (*StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AdminApplicationService.Status")
	defer span.End()

	current, err := s.store.Settings(ctx)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		// 初回起動直後は行がない。停止スイッチの読み取りと同じく停止扱い
		return &StatusResponse{CurrentBalance: decimal.Zero, ServiceActive: false}, nil
	}
	if err != nil {
		return nil, s.fail(span, apperror.InternalErr("Failed to read system settings", err))
	}

	updated := current.LastUpdated()
	return &StatusResponse{
		CurrentBalance: current.CurrentBalance(),
		ServiceActive:  current.IsServiceActive(),
		LastUpdated:    &updated,
	}, nil
}

// SetBalance ベンダー残高を手動で更新
func (s *AdminApplicationService) SetBalance(ctx context.Context, req *SetBalanceRequest) (*StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AdminApplicationService.SetBalance")
	defer span.End()

	value, err := balance.Parse(req.Balance)
	if err != nil || value.IsNegative() {
		return nil, s.fail(span, apperror.InvalidErr("Invalid balance"))
	}

	if err := s.store.SetBalance(ctx, value); err != nil {
		return nil, s.fail(span, apperror.InternalErr("Failed to update balance", err))
	}

	f, _ := value.Float64()
	s.metrics.RecordSystemBalance(ctx, f)
	s.logger.Info(ctx, "Balance set by operator", map[string]interface{}{
		"balance": value.StringFixed(2),
	})
	return s.Status(ctx)
}

// SetService サービス停止スイッチを切り替える
func (s *AdminApplicationService) SetService(ctx context.Context, req *SetServiceRequest) (*StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AdminApplicationService.SetService")
	defer span.End()

	if req.Active == nil {
		return nil, s.fail(span, apperror.InvalidErr("Missing active"))
	}
	span.SetAttributes(attribute.Bool("active", *req.Active))

	if err := s.store.SetServiceActive(ctx, *req.Active); err != nil {
		return nil, s.fail(span, apperror.InternalErr("Failed to update service status", err))
	}
	return s.Status(ctx)
}

// Transaction リファレンスで記録を取得
func (s *AdminApplicationService) Transaction(ctx context.Context, reference string) (*domaintx.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "AdminApplicationService.Transaction")
	defer span.End()

	span.SetAttributes(attribute.String("reference", reference))

	if !domaintx.ValidReference(reference) {
		return nil, s.fail(span, apperror.InvalidErr("Invalid reference"))
	}

	txn, err := s.store.Find(ctx, reference)
	if errors.Is(err, domaintx.ErrTransactionNotFound) {
		return nil, s.fail(span, apperror.NotFoundErr("Transaction not found"))
	}
	if err != nil {
		return nil, s.fail(span, apperror.InternalErr("Failed to load transaction", err))
	}
	return txn, nil
}

func (s *AdminApplicationService) fail(span trace.Span, err *apperror.Error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
