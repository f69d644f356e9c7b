// Package sendgrid SendGrid v3 メール送信クライアント
package sendgrid

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/notification"
	"paybridge/internal/infrastructure/config"
)

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To      []address `json:"to"`
	Subject string    `json:"subject"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailBody struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Client SendGridクライアント
type Client struct {
	http   *resty.Client
	apiKey string
	apiURL string
	from   address
	tracer trace.Tracer
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.EmailConfig) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:   httpClient,
		apiKey: cfg.APIKey,
		apiURL: cfg.APIURL,
		from:   address{Email: cfg.FromEmail, Name: cfg.FromName},
		tracer: otel.Tracer("sendgrid-client"),
	}
}

// Configured APIキーと送信元が設定されているかどうか
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.from.Email != ""
}

// Send HTMLメールを1通送信
func (c *Client) Send(ctx context.Context, msg notification.Message) error {
	ctx, span := c.tracer.Start(ctx, "SendGridClient.Send")
	defer span.End()

	span.SetAttributes(attribute.String("mail.subject", msg.Subject))

	if !c.Configured() {
		return c.fail(span, notification.ErrMailerNotConfigured)
	}
	if msg.To == "" {
		return c.fail(span, notification.ErrMissingRecipient)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(mailBody{
			Personalizations: []personalization{{
				To:      []address{{Email: msg.To}},
				Subject: msg.Subject,
			}},
			From:    c.from,
			Subject: msg.Subject,
			Content: []content{{Type: "text/html", Value: msg.HTML}},
		}).
		Post(c.apiURL)
	if err != nil {
		return c.fail(span, fmt.Errorf("sendgrid request failed: %w", err))
	}
	if resp.IsError() {
		return c.fail(span, fmt.Errorf("sendgrid responded with status %d: %s", resp.StatusCode(), resp.String()))
	}

	span.SetStatus(otelcodes.Ok, "mail accepted")
	return nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
