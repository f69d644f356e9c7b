// Package webhook 決済プロセッサからの署名付きイベント処理
package webhook

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/application/fulfillment"
	"paybridge/internal/domain/payment"
	"paybridge/internal/domain/provisioning"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/shared/apperror"
)

// イベントの処理結果
const (
	StatusProcessed       = "processed"
	StatusIgnored         = "ignored"
	StatusVerifyFailed    = "verify_failed"
	StatusServiceInactive = "service_inactive"
	StatusNoProduct       = "no_product"
)

// ReasonServiceInactive 停止中に届いた決済の記録理由
const ReasonServiceInactive = "Service temporarily inactive"

// Fulfiller 決済確認後の供給
type Fulfiller interface {
	Fulfil(ctx context.Context, verification *payment.Verification, order provisioning.Order) *fulfillment.Outcome
}

// Store Webhookで使うストア
type Store interface {
	IsServiceActive(ctx context.Context) bool
	MarkFailed(ctx context.Context, reference, reason string) error
}

// Result イベントの処理結果
type Result struct {
	Event     string
	Reference string
	Status    string
	Outcome   *fulfillment.Outcome
}

// WebhookApplicationService Webhookアプリケーションサービス
type WebhookApplicationService struct {
	gateway   payment.Gateway
	fulfiller Fulfiller
	store     Store
	networks  provisioning.Networks
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewWebhookApplicationService 新しいWebhookApplicationServiceを作成
func NewWebhookApplicationService(
	gateway payment.Gateway,
	fulfiller Fulfiller,
	store Store,
	networks provisioning.Networks,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *WebhookApplicationService {
	return &WebhookApplicationService{
		gateway:   gateway,
		fulfiller: fulfiller,
		store:     store,
		networks:  networks,
		logger:    logger.With(map[string]interface{}{"component": "webhook"}),
		metrics:   metrics,
		tracer:    otel.Tracer("webhook-service"),
		now:       time.Now,
	}
}

// Handle 生の本文の署名を検証してからイベントを処理する。
// 署名が一致しなければ本文を解釈せず、外部呼び出しも行わない。
func (s *WebhookApplicationService) Handle(ctx context.Context, body []byte, signature string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "WebhookApplicationService.Handle")
	defer span.End()

	if !s.gateway.Configured() {
		err := apperror.InternalErr("Server not configured with Paystack secret key", payment.ErrGatewayNotConfigured)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Webhook received without processor secret", err, nil)
		return nil, err
	}

	if !s.gateway.VerifySignature(body, signature) {
		err := apperror.InvalidErr("Invalid signature")
		span.SetStatus(otelcodes.Error, payment.ErrInvalidSignature.Error())
		s.metrics.RecordWebhookEvent(ctx, "unknown", "invalid_signature")
		s.logger.Warn(ctx, "Webhook signature mismatch", map[string]interface{}{
			"has_signature": signature != "",
			"body_bytes":    len(body),
		})
		return nil, err
	}

	var event payment.Event
	if err := json.Unmarshal(body, &event); err != nil {
		appErr := apperror.InvalidErr("Invalid webhook payload")
		appErr.Err = err
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Warn(ctx, "Webhook payload is not valid JSON", map[string]interface{}{"error": err.Error()})
		return nil, appErr
	}

	started := s.now()
	result := s.dispatch(ctx, &event)

	span.SetAttributes(
		attribute.String("webhook.event", result.Event),
		attribute.String("webhook.status", result.Status),
		attribute.String("reference", result.Reference),
	)
	span.SetStatus(otelcodes.Ok, result.Status)

	s.metrics.RecordWebhookEvent(ctx, result.Event, result.Status)
	s.logger.Info(ctx, "Webhook handled", map[string]interface{}{
		"event":       result.Event,
		"reference":   result.Reference,
		"status":      result.Status,
		"duration_ms": s.now().Sub(started).Milliseconds(),
	})
	return result, nil
}

func (s *WebhookApplicationService) dispatch(ctx context.Context, event *payment.Event) *Result {
	result := &Result{Event: event.Event, Reference: event.Reference(), Status: StatusIgnored}
	if event.Event != payment.EventChargeSuccess || result.Reference == "" {
		return result
	}

	verification, err := s.gateway.Verify(ctx, result.Reference)
	if err != nil {
		s.logger.Error(ctx, "Webhook re-verification failed", err, map[string]interface{}{
			"reference": result.Reference,
		})
		result.Status = StatusVerifyFailed
		return result
	}
	if !verification.Succeeded() {
		s.logger.Warn(ctx, "Webhook payment not successful on re-verification", map[string]interface{}{
			"reference": result.Reference,
			"status":    verification.Status,
		})
		result.Status = StatusVerifyFailed
		return result
	}

	if !s.store.IsServiceActive(ctx) {
		_ = s.store.MarkFailed(ctx, result.Reference, ReasonServiceInactive)
		result.Status = StatusServiceInactive
		return result
	}

	order, ok := provisioning.OrderFromMetadata(verification.Metadata, s.networks)
	if !ok {
		result.Status = StatusNoProduct
		return result
	}

	result.Outcome = s.fulfiller.Fulfil(ctx, verification, order)
	result.Status = StatusProcessed
	return result
}
