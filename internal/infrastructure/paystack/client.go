// Package paystack Paystack APIクライアント
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/payment"
	"paybridge/internal/infrastructure/config"
)

// envelope Paystack APIの共通レスポンス
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeBody struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Channels    []string               `json:"channels"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    *time.Time      `json:"paid_at"`
	Channel   string          `json:"channel"`
	Metadata  json.RawMessage `json:"metadata"`
	Customer  struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	} `json:"customer"`
}

// Client Paystack APIクライアント
type Client struct {
	http      *resty.Client
	secretKey string
	publicKey string
	tracer    trace.Tracer
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.PaystackConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.SecretKey != "" {
		httpClient.SetAuthToken(cfg.SecretKey)
	}

	return &Client{
		http:      httpClient,
		secretKey: cfg.SecretKey,
		publicKey: cfg.PublicKey,
		tracer:    otel.Tracer("paystack-client"),
	}
}

// Configured シークレットキーが設定されているかどうか
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// PublicKey 公開キーを返す
func (c *Client) PublicKey() string {
	return c.publicKey
}

// Initialize 決済セッションを作成
func (c *Client) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Session, error) {
	ctx, span := c.tracer.Start(ctx, "PaystackClient.Initialize")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("paystack.amount", req.Amount),
		attribute.String("paystack.currency", req.Currency),
	)

	if !c.Configured() {
		return nil, c.fail(span, payment.ErrGatewayNotConfigured)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(initializeBody{
			Email:       req.Email,
			Amount:      req.Amount,
			Currency:    req.Currency,
			CallbackURL: req.CallbackURL,
			Metadata:    req.Metadata,
			Channels:    req.Channels,
		}).
		Post("/transaction/initialize")
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("paystack initialize request failed: %w", err))
	}

	env, payload, err := decodeEnvelope(resp.Body())
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("paystack initialize: status %d: %w", resp.StatusCode(), err))
	}
	if !env.Status {
		return nil, c.fail(span, &payment.RejectedError{Op: "initialize", Message: env.Message, Payload: payload})
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to decode initialize data: %w", err))
	}

	span.SetAttributes(attribute.String("paystack.reference", data.Reference))
	span.SetStatus(otelcodes.Ok, "session created")

	return &payment.Session{
		Reference:        data.Reference,
		AccessCode:       data.AccessCode,
		AuthorizationURL: data.AuthorizationURL,
	}, nil
}

// Verify リファレンスで決済を確認
func (c *Client) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	ctx, span := c.tracer.Start(ctx, "PaystackClient.Verify")
	defer span.End()

	span.SetAttributes(attribute.String("paystack.reference", reference))

	if !c.Configured() {
		return nil, c.fail(span, payment.ErrGatewayNotConfigured)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/transaction/verify/" + url.PathEscape(reference))
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("paystack verify request failed: %w", err))
	}

	env, payload, err := decodeEnvelope(resp.Body())
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("paystack verify: status %d: %w", resp.StatusCode(), err))
	}
	if !env.Status {
		return nil, c.fail(span, &payment.RejectedError{Op: "verify", Message: env.Message, Payload: payload})
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to decode verify data: %w", err))
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to decode verify data: %w", err))
	}

	span.SetAttributes(attribute.String("paystack.status", data.Status))
	span.SetStatus(otelcodes.Ok, "payment verified")

	return &payment.Verification{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    data.Amount,
		Currency:  data.Currency,
		PaidAt:    data.PaidAt,
		Channel:   data.Channel,
		Customer: payment.Customer{
			Email:     data.Customer.Email,
			FirstName: data.Customer.FirstName,
			LastName:  data.Customer.LastName,
			Phone:     data.Customer.Phone,
		},
		Metadata: decodeMetadata(data.Metadata),
		Raw:      raw,
	}, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

// decodeEnvelope 共通レスポンスと、detail に載せるための生のマップを返す
func decodeEnvelope(body []byte) (*envelope, map[string]interface{}, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("unexpected response body: %w", err)
	}
	var payload map[string]interface{}
	_ = json.Unmarshal(body, &payload)
	return &env, payload, nil
}

// decodeMetadata メタデータはオブジェクトのほか、JSON文字列で返ることがある
func decodeMetadata(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(raw, &metadata); err == nil {
		return metadata
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil || encoded == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &metadata); err != nil {
		return nil
	}
	return metadata
}
