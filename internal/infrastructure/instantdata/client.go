// Package instantdata InstantData（データバンドル供給ベンダー）APIクライアント
package instantdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/provisioning"
	"paybridge/internal/infrastructure/config"
)

type orderBody struct {
	Network     string `json:"network"`
	PhoneNumber string `json:"phone_number,omitempty"`
	DataAmount  string `json:"data_amount"`
	CheckOnly   bool   `json:"check_only,omitempty"`
}

// APIError ベンダーが2xx以外を返したエラー
type APIError struct {
	StatusCode int
	Message    string
	Body       map[string]interface{}
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("instantdata responded with status %d", e.StatusCode)
}

// Client InstantData APIクライアント
type Client struct {
	http             *resty.Client
	apiKey           string
	apiURL           string
	timeout          time.Duration
	preflightTimeout time.Duration
	tracer           trace.Tracer
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.InstantDataConfig) *Client {
	httpClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("api-key", cfg.APIKey)
	}

	return &Client{
		http:             httpClient,
		apiKey:           cfg.APIKey,
		apiURL:           cfg.APIURL,
		timeout:          cfg.Timeout,
		preflightTimeout: cfg.PreflightTimeout,
		tracer:           otel.Tracer("instantdata-client"),
	}
}

// Configured APIキーとURLが設定されているかどうか
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiURL != ""
}

// PlaceOrder 注文を確定する。ベンダーが失敗を返した場合は provisioning.RejectedError
func (c *Client) PlaceOrder(ctx context.Context, order provisioning.Order) (*provisioning.Result, error) {
	ctx, span := c.tracer.Start(ctx, "InstantDataClient.PlaceOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("instantdata.network", order.Network),
		attribute.String("instantdata.data_amount", order.DataAmount),
	)

	result, err := c.post(ctx, c.timeout, orderBody{
		Network:     order.Network,
		PhoneNumber: order.PhoneNumber,
		DataAmount:  order.DataAmount,
	})
	if err != nil {
		return result, c.fail(span, err)
	}

	span.SetAttributes(attribute.String("instantdata.order_id", result.OrderID))
	span.SetStatus(otelcodes.Ok, "order placed")
	return result, nil
}

// CheckAvailability check_only で注文可能かを確認する
func (c *Client) CheckAvailability(ctx context.Context, order provisioning.Order) (*provisioning.Result, error) {
	ctx, span := c.tracer.Start(ctx, "InstantDataClient.CheckAvailability")
	defer span.End()

	span.SetAttributes(
		attribute.String("instantdata.network", order.Network),
		attribute.String("instantdata.data_amount", order.DataAmount),
	)

	result, err := c.post(ctx, c.preflightTimeout, orderBody{
		Network:    order.Network,
		DataAmount: order.DataAmount,
		CheckOnly:  true,
	})
	if err != nil {
		return result, c.fail(span, err)
	}

	span.SetStatus(otelcodes.Ok, "available")
	return result, nil
}

func (c *Client) post(ctx context.Context, timeout time.Duration, body orderBody) (*provisioning.Result, error) {
	if !c.Configured() {
		return nil, provisioning.ErrProviderNotConfigured
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("instantdata request failed: %w", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil && resp.IsSuccess() {
		return nil, fmt.Errorf("instantdata: unexpected response body: %w", err)
	}

	if resp.IsError() {
		message, _ := payload["message"].(string)
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: message, Body: payload}
	}

	result := parseResult(payload)
	if result.Failed() {
		message := result.Message
		if message == "" {
			message = "Unknown error"
		}
		return result, &provisioning.RejectedError{Message: message, Result: result}
	}
	return result, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

// parseResult 応答を Result に変換する。詳細はトップレベルか data 配下のどちらかにある
func parseResult(payload map[string]interface{}) *provisioning.Result {
	result := &provisioning.Result{Raw: payload}
	if payload == nil {
		return result
	}

	if success, ok := payload["success"].(bool); ok {
		result.Success = &success
	}
	result.Message = stringField(payload, "message")

	nested, _ := payload["data"].(map[string]interface{})
	lookup := func(key string) string {
		if v := stringField(payload, key); v != "" {
			return v
		}
		return stringField(nested, key)
	}

	result.Status = lookup("status")
	result.OrderID = lookup("order_id")
	result.DeliveryNote = lookup("note")
	result.ExpectedDelivery = lookup("expected_delivery")
	return result
}

// stringField 文字列または数値の項目を文字列で返す
func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
