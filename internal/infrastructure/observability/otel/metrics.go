package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter

	// ベンダーへのデータ注文数（結果別）
	ProvisioningOrders metric.Int64Counter

	// ベンダー残高
	SystemBalance metric.Float64Gauge

	// Webhookイベント数（処理結果別）
	WebhookEvents metric.Int64Counter

	// 通知メール送信数（宛先種別・結果別）
	Notifications metric.Int64Counter

	// レート制限で拒否したリクエスト数
	RateLimited metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	provisioningOrders, err := meter.Int64Counter(
		"provisioning_orders_total",
		metric.WithDescription("Total number of data bundle orders sent to the vendor"),
	)
	if err != nil {
		return nil, err
	}

	systemBalance, err := meter.Float64Gauge(
		"system_balance",
		metric.WithDescription("Last known vendor balance"),
	)
	if err != nil {
		return nil, err
	}

	webhookEvents, err := meter.Int64Counter(
		"webhook_events_total",
		metric.WithDescription("Total number of processed webhook events"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter(
		"notifications_total",
		metric.WithDescription("Total number of notification emails attempted"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"rate_limited_requests_total",
		metric.WithDescription("Total number of requests rejected by the rate limiter"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:       requestCount,
		ResponseTime:       responseTime,
		ErrorCount:         errorCount,
		ProvisioningOrders: provisioningOrders,
		SystemBalance:      systemBalance,
		WebhookEvents:      webhookEvents,
		Notifications:      notifications,
		RateLimited:        rateLimited,
	}, nil
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}

// RecordProvisioningOrder データ注文の結果を記録
func (m *Metrics) RecordProvisioningOrder(ctx context.Context, network, outcome string) {
	m.ProvisioningOrders.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("network", network),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordSystemBalance ベンダー残高を記録
func (m *Metrics) RecordSystemBalance(ctx context.Context, balance float64) {
	m.SystemBalance.Record(ctx, balance)
}

// RecordWebhookEvent Webhookイベントを記録
func (m *Metrics) RecordWebhookEvent(ctx context.Context, event, status string) {
	m.WebhookEvents.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event", event),
			attribute.String("status", status),
		),
	)
}

// RecordNotification 通知メールの送信結果を記録
func (m *Metrics) RecordNotification(ctx context.Context, recipient string, success bool) {
	m.Notifications.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("recipient", recipient),
			attribute.Bool("success", success),
		),
	)
}

// RecordRateLimited レート制限による拒否を記録
func (m *Metrics) RecordRateLimited(ctx context.Context, path string) {
	m.RateLimited.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("path", path),
		),
	)
}
