// Package history 運用者向けの取引記録一覧
package history

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domaintx "paybridge/internal/domain/transaction"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/shared/apperror"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Store 一覧取得に使うストア
type Store interface {
	List(ctx context.Context, status domaintx.TransactionStatus, limit, offset int) ([]*domaintx.Transaction, int, error)
}

// HistoryApplicationService 履歴アプリケーションサービス
type HistoryApplicationService struct {
	store   Store
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(store Store, logger *otelinfra.Logger, metrics *otelinfra.Metrics) *HistoryApplicationService {
	return &HistoryApplicationService{
		store:   store,
		logger:  logger.With(map[string]interface{}{"component": "history"}),
		metrics: metrics,
		tracer:  otel.Tracer("history-service"),
	}
}

// ListTransactions 新しい順に取引記録を取得。手動対応待ちの洗い出しに使う
func (s *HistoryApplicationService) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.ListTransactions")
	defer span.End()

	// バリデーション
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	var status domaintx.TransactionStatus
	if raw := strings.TrimSpace(req.Status); raw != "" {
		parsed, err := domaintx.NewTransactionStatus(raw)
		if err != nil {
			appErr := apperror.InvalidErr("Invalid status")
			span.RecordError(appErr)
			span.SetStatus(otelcodes.Error, appErr.Error())
			s.metrics.RecordError(ctx, string(appErr.Kind))
			return nil, appErr
		}
		status = parsed
	}

	span.SetAttributes(
		attribute.String("status", status.String()),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	txns, total, err := s.store.List(ctx, status, limit, offset)
	if err != nil {
		appErr := apperror.InternalErr("Failed to list transactions", err)
		span.RecordError(appErr)
		span.SetStatus(otelcodes.Error, appErr.Error())
		s.metrics.RecordError(ctx, string(appErr.Kind))
		return nil, appErr
	}

	s.logger.Debug(ctx, "Transactions listed", map[string]interface{}{
		"status": status.String(),
		"count":  len(txns),
		"total":  total,
	})

	return &ListTransactionsResponse{
		Transactions: txns,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}
