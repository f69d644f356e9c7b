package handler

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"

	adminapp "paybridge/internal/application/admin"
	authapp "paybridge/internal/application/auth"
	historyapp "paybridge/internal/application/history"
	paymentapp "paybridge/internal/application/payment"
	webhookapp "paybridge/internal/application/webhook"
	domaintx "paybridge/internal/domain/transaction"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	restmiddleware "paybridge/internal/presentation/rest/middleware"
)

// newTestEcho エラーハンドラーとバリデーターを設定したechoを作成
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
	return e
}

// MockPaymentService PaymentServiceのモック
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initialize(ctx context.Context, req *paymentapp.InitializeRequest) (*paymentapp.InitializeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.InitializeResponse), args.Error(1)
}

func (m *MockPaymentService) Verify(ctx context.Context, req *paymentapp.VerifyRequest) (*paymentapp.VerifyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.VerifyResponse), args.Error(1)
}

func (m *MockPaymentService) CheckBalance(ctx context.Context, req *paymentapp.CheckBalanceRequest) (*paymentapp.CheckBalanceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.CheckBalanceResponse), args.Error(1)
}

// MockWebhookService WebhookServiceのモック
type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) Handle(ctx context.Context, body []byte, signature string) (*webhookapp.Result, error) {
	args := m.Called(ctx, body, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhookapp.Result), args.Error(1)
}

// MockAdminService AdminServiceのモック
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Status(ctx context.Context) (*adminapp.StatusResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adminapp.StatusResponse), args.Error(1)
}

func (m *MockAdminService) SetBalance(ctx context.Context, req *adminapp.SetBalanceRequest) (*adminapp.StatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adminapp.StatusResponse), args.Error(1)
}

func (m *MockAdminService) SetService(ctx context.Context, req *adminapp.SetServiceRequest) (*adminapp.StatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adminapp.StatusResponse), args.Error(1)
}

func (m *MockAdminService) Transaction(ctx context.Context, reference string) (*domaintx.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domaintx.Transaction), args.Error(1)
}

// MockTokenIssuer TokenIssuerのモック
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(ctx context.Context, req *authapp.GenerateTokenRequest) (*authapp.GenerateTokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authapp.GenerateTokenResponse), args.Error(1)
}

// MockHealthChecker HealthCheckerのモック
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockHistoryService HistoryServiceのモック
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) ListTransactions(ctx context.Context, req *historyapp.ListTransactionsRequest) (*historyapp.ListTransactionsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*historyapp.ListTransactionsResponse), args.Error(1)
}
