// Package notification 取引結果を顧客と運用者にメールで通知する
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/notification"
	"paybridge/internal/domain/transaction"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

const (
	subjectCustomerSuccess = "Data Order Successful"
	subjectCustomerFailure = "Data Order Failed"
	subjectOperatorSuccess = "New Data Order Completed"
	subjectOperatorFailure = "Data Order Failed - Manual Review Needed"

	notAvailable = "N/A"
)

// Dispatcher 取引通知の送信
type Dispatcher struct {
	mailer        notification.Mailer
	operatorEmail string
	shopName      string
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
}

// NewDispatcher 新しいDispatcherを作成
func NewDispatcher(
	mailer notification.Mailer,
	operatorEmail string,
	shopName string,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Dispatcher {
	return &Dispatcher{
		mailer:        mailer,
		operatorEmail: operatorEmail,
		shopName:      shopName,
		logger:        logger.With(map[string]interface{}{"component": "notification"}),
		metrics:       metrics,
		tracer:        otel.Tracer("notification-dispatcher"),
	}
}

// NotifyCustomer 顧客に注文結果を送信。errText が空でなければ失敗通知
func (d *Dispatcher) NotifyCustomer(ctx context.Context, email string, txn *transaction.Transaction, errText string) error {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.NotifyCustomer")
	defer span.End()

	span.SetAttributes(attribute.String("reference", txn.Reference()))

	subject := subjectCustomerSuccess
	if errText != "" {
		subject = subjectCustomerFailure
	}

	view := newMailView(txn, subject, errText, d.shopName)
	var body bytes.Buffer
	if err := customerTemplate.Execute(&body, view); err != nil {
		return d.fail(ctx, span, "customer", txn.Reference(), fmt.Errorf("failed to render customer email: %w", err))
	}

	return d.send(ctx, span, "customer", notification.Message{
		To:      email,
		Subject: subject,
		HTML:    body.String(),
	}, txn.Reference())
}

// NotifyOperator 運用者に注文結果と記録全体を送信
func (d *Dispatcher) NotifyOperator(ctx context.Context, txn *transaction.Transaction, errText string) error {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.NotifyOperator")
	defer span.End()

	span.SetAttributes(attribute.String("reference", txn.Reference()))

	subject := subjectOperatorSuccess
	if errText != "" {
		subject = subjectOperatorFailure
	}

	view := newMailView(txn, subject, errText, d.shopName)
	dump, err := json.MarshalIndent(newRecordDump(txn), "", "  ")
	if err != nil {
		return d.fail(ctx, span, "operator", txn.Reference(), fmt.Errorf("failed to encode record: %w", err))
	}
	view.Dump = string(dump)

	var body bytes.Buffer
	if err := operatorTemplate.Execute(&body, view); err != nil {
		return d.fail(ctx, span, "operator", txn.Reference(), fmt.Errorf("failed to render operator email: %w", err))
	}

	return d.send(ctx, span, "operator", notification.Message{
		To:      d.operatorEmail,
		Subject: subject,
		HTML:    body.String(),
	}, txn.Reference())
}

func (d *Dispatcher) send(ctx context.Context, span trace.Span, recipient string, msg notification.Message, reference string) error {
	if !d.mailer.Configured() {
		d.logger.Warn(ctx, "Mailer not configured, skipping email", map[string]interface{}{
			"recipient": recipient,
			"reference": reference,
		})
		d.metrics.RecordNotification(ctx, recipient, false)
		span.SetStatus(otelcodes.Error, notification.ErrMailerNotConfigured.Error())
		return notification.ErrMailerNotConfigured
	}
	if msg.To == "" {
		return d.fail(ctx, span, recipient, reference, notification.ErrMissingRecipient)
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return d.fail(ctx, span, recipient, reference, err)
	}

	d.metrics.RecordNotification(ctx, recipient, true)
	d.logger.Info(ctx, "Email sent", map[string]interface{}{
		"recipient": recipient,
		"reference": reference,
		"subject":   msg.Subject,
	})
	span.SetStatus(otelcodes.Ok, "email sent")
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, span trace.Span, recipient, reference string, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	d.metrics.RecordNotification(ctx, recipient, false)
	d.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
		"recipient": recipient,
		"reference": reference,
	})
	return err
}

// mailView テンプレートに渡す値
type mailView struct {
	Subject          string
	Failed           bool
	ShopName         string
	Reference        string
	CustomerEmail    string
	Network          string
	Phone            string
	DataAmount       string
	AmountPaid       string
	Status           string
	OrderID          string
	ExpectedDelivery string
	RemainingBalance string
	Note             string
	Error            string
	Dump             string
}

func newMailView(txn *transaction.Transaction, subject, errText, shopName string) *mailView {
	view := &mailView{
		Subject:       subject,
		Failed:        errText != "",
		ShopName:      shopName,
		Reference:     txn.Reference(),
		CustomerEmail: orNA(txn.CustomerEmail()),
		Network:       notAvailable,
		Phone:         notAvailable,
		DataAmount:    notAvailable,
		AmountPaid:    "0.00",
		Status:        txn.Status().String(),
		Error:         errText,
	}
	if order := txn.Order(); order != nil {
		view.Network = orNA(order.Network)
		view.Phone = orNA(order.PhoneNumber)
		view.DataAmount = orNA(order.DataAmount)
	}
	if p := txn.Payment(); p != nil {
		view.AmountPaid = p.Amount.StringFixed(2)
	}
	if pr := txn.ProviderResponse(); pr != nil {
		view.OrderID = pr.OrderID
		view.ExpectedDelivery = pr.ExpectedDelivery
		view.RemainingBalance = pr.RemainingBalance
		view.Note = pr.DeliveryNote
		if pr.Status != "" {
			view.Status = pr.Status
		}
	}
	return view
}

// recordDump 運用者向けメールに載せる記録全体
type recordDump struct {
	Reference        string                        `json:"reference"`
	Status           string                        `json:"status"`
	Payment          *transaction.Payment          `json:"payment,omitempty"`
	Customer         *transaction.Customer         `json:"customer,omitempty"`
	Order            *transaction.OrderDetails     `json:"order,omitempty"`
	ProviderResponse *transaction.ProviderResponse `json:"provider_response,omitempty"`
	ErrorDetail      string                        `json:"error_detail,omitempty"`
	CreatedAt        string                        `json:"created_at"`
}

func newRecordDump(txn *transaction.Transaction) recordDump {
	return recordDump{
		Reference:        txn.Reference(),
		Status:           txn.Status().String(),
		Payment:          txn.Payment(),
		Customer:         txn.Customer(),
		Order:            txn.Order(),
		ProviderResponse: txn.ProviderResponse(),
		ErrorDetail:      txn.ErrorDetail(),
		CreatedAt:        txn.CreatedAt().UTC().Format(time.RFC3339),
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
