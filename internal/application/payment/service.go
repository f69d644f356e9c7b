// Package payment 決済セッション作成・決済確認・在庫確認のユースケース
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/application/fulfillment"
	"paybridge/internal/domain/balance"
	"paybridge/internal/domain/payment"
	"paybridge/internal/domain/pricing"
	"paybridge/internal/domain/provisioning"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/shared/apperror"
)

const (
	msgMissingEmailOrAmount  = "Missing email or amount"
	msgInvalidEmailOrAmount  = "Invalid email or amount"
	msgProviderNotConfigured = "InstantData API not configured"
	msgGatewayNotConfigured  = "Server not configured with Paystack secret key"
	msgInitFailed            = "Paystack init failed"
	msgInitError             = "Initialize error"
	msgMissingReference      = "Missing reference"
	msgVerificationFailed    = "Verification failed"
	msgNotSuccessful         = "Transaction not successful"
	msgVerifyException       = "Verify exception"
	msgMissingNetworkAmount  = "Missing network or data_amount"
	msgBalanceAvailable      = "Balance available"
	msgServiceConfigError    = "Service configuration error"
	msgServiceInactive       = "Service temporarily unavailable"
	msgBalanceCheckError     = "Balance check error"
)

// Fulfiller 決済確認後の供給
type Fulfiller interface {
	Fulfil(ctx context.Context, verification *payment.Verification, order provisioning.Order) *fulfillment.Outcome
}

// Store 在庫確認で参照するストア
type Store interface {
	IsServiceActive(ctx context.Context) bool
	GetPricing(ctx context.Context, network, dataAmount string) (*pricing.PackagePrice, error)
	GetBalance(ctx context.Context) (decimal.Decimal, error)
}

// Options 決済の設定値
type Options struct {
	Currency        string
	DefaultChannels []string
	Networks        provisioning.Networks
}

// PaymentApplicationService 決済アプリケーションサービス
type PaymentApplicationService struct {
	gateway   payment.Gateway
	provider  provisioning.Provider
	fulfiller Fulfiller
	store     Store
	opts      Options
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
}

// NewPaymentApplicationService 新しいPaymentApplicationServiceを作成
func NewPaymentApplicationService(
	gateway payment.Gateway,
	provider provisioning.Provider,
	fulfiller Fulfiller,
	store Store,
	opts Options,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PaymentApplicationService {
	return &PaymentApplicationService{
		gateway:   gateway,
		provider:  provider,
		fulfiller: fulfiller,
		store:     store,
		opts:      opts,
		logger:    logger.With(map[string]interface{}{"component": "payment"}),
		metrics:   metrics,
		tracer:    otel.Tracer("payment-service"),
	}
}

// Initialize 入力を検証し、ベンダーの事前確認を経て決済セッションを作成
func (s *PaymentApplicationService) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.Initialize")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	rawAmount := strings.TrimSpace(req.Amount)
	if email == "" || rawAmount == "" {
		return nil, s.fail(ctx, span, apperror.InvalidErr(msgMissingEmailOrAmount))
	}

	amount, err := strconv.ParseFloat(rawAmount, 64)
	if !strings.Contains(email, "@") || err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, s.fail(ctx, span, apperror.InvalidErr(msgInvalidEmailOrAmount))
	}
	// プロセッサには最小通貨単位の整数で渡すため、丸めた後の値で判定する
	minorAmount := int64(math.Round(amount))
	if minorAmount <= 0 {
		return nil, s.fail(ctx, span, apperror.InvalidErr(msgInvalidEmailOrAmount))
	}

	span.SetAttributes(attribute.Int64("amount", minorAmount))

	if query, ok := provisioning.AvailabilityQuery(req.Metadata); ok {
		if err := s.preflight(ctx, query); err != nil {
			return nil, s.fail(ctx, span, err)
		}
	}

	if !s.gateway.Configured() {
		return nil, s.fail(ctx, span, apperror.InternalErr(msgGatewayNotConfigured, payment.ErrGatewayNotConfigured))
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = s.opts.DefaultChannels
	}

	session, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:       email,
		Amount:      minorAmount,
		Currency:    s.opts.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
		Channels:    channels,
	})
	if err != nil {
		var rejected *payment.RejectedError
		if errors.As(err, &rejected) {
			return nil, s.fail(ctx, span, apperror.InternalErr(msgInitFailed, err).WithDetail(rejected.Payload))
		}
		return nil, s.fail(ctx, span, apperror.InternalErr(msgInitError, err).WithDetail(err.Error()))
	}

	s.logger.Info(ctx, "Payment session created", map[string]interface{}{
		"reference": session.Reference,
		"has_url":   session.AuthorizationURL != "",
	})
	span.SetAttributes(attribute.String("reference", session.Reference))
	span.SetStatus(otelcodes.Ok, "session created")

	return &InitializeResponse{
		Reference:        session.Reference,
		AccessCode:       session.AccessCode,
		AuthorizationURL: session.AuthorizationURL,
		PublicKey:        s.gateway.PublicKey(),
	}, nil
}

// preflight check_only でベンダーが注文を受けられるかを確認
func (s *PaymentApplicationService) preflight(ctx context.Context, query provisioning.Order) *apperror.Error {
	if !s.provider.Configured() {
		return apperror.InternalErr(msgProviderNotConfigured, provisioning.ErrProviderNotConfigured)
	}

	s.logger.Info(ctx, "Checking vendor availability", map[string]interface{}{
		"network":     query.Network,
		"data_amount": query.DataAmount,
	})

	_, err := s.provider.CheckAvailability(ctx, query)
	if err == nil {
		return nil
	}

	var rejected *provisioning.RejectedError
	if errors.As(err, &rejected) {
		return apperror.UpstreamErr(fmt.Sprintf("Insufficient balance for %s: %s", query.Network, rejected.Message), err)
	}
	return apperror.UpstreamErr(fmt.Sprintf("Cannot verify balance: %s", err.Error()), err)
}

// Verify 決済をプロセッサで確認し、対象商品なら供給まで行う
func (s *PaymentApplicationService) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.Verify")
	defer span.End()

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return nil, s.fail(ctx, span, apperror.InvalidErr(msgMissingReference))
	}
	span.SetAttributes(attribute.String("reference", reference))

	if !s.gateway.Configured() {
		return nil, s.fail(ctx, span, apperror.InternalErr(msgGatewayNotConfigured, payment.ErrGatewayNotConfigured))
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		var rejected *payment.RejectedError
		if errors.As(err, &rejected) {
			return nil, s.fail(ctx, span, apperror.UpstreamErr(msgVerificationFailed, err).WithDetail(rejected.Payload))
		}
		return nil, s.fail(ctx, span, apperror.InternalErr(msgVerifyException, err).WithDetail(err.Error()))
	}

	if !verification.Succeeded() {
		s.logger.Warn(ctx, "Payment not successful", map[string]interface{}{
			"reference": reference,
			"status":    verification.Status,
		})
		return nil, s.fail(ctx, span, apperror.UpstreamErr(msgNotSuccessful, nil).WithDetail(verification.Raw))
	}

	resp := &VerifyResponse{Paystack: verification.Raw}

	order, ok := provisioning.OrderFromMetadata(verification.Metadata, s.opts.Networks)
	if !ok {
		s.logger.Info(ctx, "Payment verified without a deliverable product", map[string]interface{}{
			"reference": reference,
			"network":   order.Network,
		})
		span.SetStatus(otelcodes.Ok, "verified")
		return resp, nil
	}

	outcome := s.fulfiller.Fulfil(ctx, verification, order)
	resp.Order = &OrderResult{
		OrderID:          outcome.OrderID,
		Status:           outcome.OrderStatus,
		ErrorDetail:      outcome.ErrorDetail,
		AlreadyFulfilled: outcome.AlreadyFulfilled,
	}

	span.SetStatus(otelcodes.Ok, "verified")
	return resp, nil
}

// CheckBalance 停止スイッチ・価格表・記録済み残高から注文可能かを判定
func (s *PaymentApplicationService) CheckBalance(ctx context.Context, req *CheckBalanceRequest) (*CheckBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CheckBalance")
	defer span.End()

	network := strings.TrimSpace(req.Network)
	dataAmount := strings.TrimSpace(req.DataAmount)

	if !s.provider.Configured() {
		s.logger.Warn(ctx, "Vendor API key not configured", nil)
		return &CheckBalanceResponse{HasBalance: false, Message: msgServiceConfigError}, nil
	}
	if network == "" || dataAmount == "" {
		return nil, s.fail(ctx, span, apperror.InvalidErr(msgMissingNetworkAmount))
	}

	span.SetAttributes(
		attribute.String("network", network),
		attribute.String("data_amount", dataAmount),
	)

	if !s.store.IsServiceActive(ctx) {
		return &CheckBalanceResponse{HasBalance: false, Message: msgServiceInactive}, nil
	}

	price, err := s.store.GetPricing(ctx, network, dataAmount)
	if errors.Is(err, pricing.ErrPriceNotFound) {
		return &CheckBalanceResponse{HasBalance: true, Message: msgBalanceAvailable}, nil
	}
	if err != nil {
		return nil, s.fail(ctx, span, apperror.InternalErr(msgBalanceCheckError, err))
	}

	current, err := s.store.GetBalance(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, apperror.InternalErr(msgBalanceCheckError, err))
	}

	priceValue := price.Price()
	resp := &CheckBalanceResponse{
		HasBalance:     balance.IsSufficient(current, priceValue),
		Message:        msgBalanceAvailable,
		CurrentBalance: &current,
		Price:          &priceValue,
	}
	if !resp.HasBalance {
		resp.Message = fmt.Sprintf("Insufficient balance for %s %sGB", network, dataAmount)
	}

	span.SetStatus(otelcodes.Ok, "balance checked")
	return resp, nil
}

func (s *PaymentApplicationService) fail(ctx context.Context, span trace.Span, err *apperror.Error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.metrics.RecordError(ctx, string(err.Kind))
	if err.Kind == apperror.Invalid {
		s.logger.Warn(ctx, err.Message, nil)
	} else {
		s.logger.Error(ctx, err.Message, err.Err, nil)
	}
	return err
}
