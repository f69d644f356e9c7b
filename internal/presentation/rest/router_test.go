package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	adminapp "paybridge/internal/application/admin"
	authapp "paybridge/internal/application/auth"
	historyapp "paybridge/internal/application/history"
	paymentapp "paybridge/internal/application/payment"
	webhookapp "paybridge/internal/application/webhook"
	domaintx "paybridge/internal/domain/transaction"
	"paybridge/internal/infrastructure/config"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/infrastructure/ratelimit"
)

// MockPaymentService モック決済サービス
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

// MockWebhookService モックWebhookサービス
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

// MockAdminService モック運用サービス
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

// MockHistoryService モック履歴サービス
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

// MockTokens モックトークン発行・検証
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) GenerateToken(ctx context.Context, req *authapp.GenerateTokenRequest) (*authapp.GenerateTokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authapp.GenerateTokenResponse), args.Error(1)
}

func (m *MockTokens) ParseToken(tokenString string) (string, error) {
	args := m.Called(tokenString)
	return args.String(0), args.Error(1)
}

// MockHealthChecker モックヘルスチェック
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type routerMocks struct {
	payment *MockPaymentService
	webhook *MockWebhookService
	admin   *MockAdminService
	history *MockHistoryService
	tokens  *MockTokens
	health  *MockHealthChecker
}

func newTestRouter(t *testing.T, rateMax int) (*Router, *routerMocks) {
	t.Helper()

	cfg := &config.Config{
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}},
		RateLimit: config.RateLimitConfig{
			Window: time.Minute,
			Max:    rateMax,
		},
		AdminAPI: config.AdminAPIConfig{Enabled: true, APIKey: "admin-key"},
		OpenTelemetry: config.OpenTelemetryConfig{
			ServiceName: "paybridge-test",
		},
	}

	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	limiter := ratelimit.NewLimiter(cfg.RateLimit)
	t.Cleanup(limiter.Close)

	mocks := &routerMocks{
		payment: new(MockPaymentService),
		webhook: new(MockWebhookService),
		admin:   new(MockAdminService),
		history: new(MockHistoryService),
		tokens:  new(MockTokens),
		health:  new(MockHealthChecker),
	}

	router, err := NewRouter(cfg, logger, metrics, limiter, Services{
		Payment: mocks.payment,
		Webhook: mocks.webhook,
		Admin:   mocks.admin,
		History: mocks.history,
		Tokens:  mocks.tokens,
		Health:  mocks.health,
	})
	require.NoError(t, err)
	return router, mocks
}

func serve(router *Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_MissingService(t *testing.T) {
	_, err := NewRouter(&config.Config{}, nil, nil, nil, Services{})
	assert.Error(t, err)
}

func TestRouter_Ping(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	for _, path := range []string{"/ping", "/api/ping"} {
		t.Run("正常系: "+path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set(echo.HeaderOrigin, "https://anything.example.com")
			rec := serve(router, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, true, body["ok"])
			assert.Equal(t, http.MethodPost, body["method"])
		})
	}
}

func TestRouter_PingPreflight(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://anything.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := serve(router, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func TestRouter_RootRedirectsToPing(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ping", rec.Header().Get("Location"))
}

func TestRouter_Health(t *testing.T) {
	router, mocks := newTestRouter(t, 10)
	mocks.health.On("HealthCheck", mock.Anything).Return(nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.health.AssertExpectations(t)
}

func TestRouter_OriginGuard(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		expectedStatus int
	}{
		{name: "正常系: 許可されたOrigin", origin: "https://shop.example.com", expectedStatus: http.StatusOK},
		{name: "正常系: localhost", origin: "http://localhost:5173", expectedStatus: http.StatusOK},
		{name: "異常系: 許可されていないOrigin", origin: "https://evil.example.com", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mocks := newTestRouter(t, 10)
			mocks.payment.On("CheckBalance", mock.Anything, mock.Anything).
				Return(&paymentapp.CheckBalanceResponse{HasBalance: true, Message: "Balance available"}, nil).Maybe()

			req := httptest.NewRequest(http.MethodPost, "/api/paystack/check-balance", strings.NewReader(`{"network":"MTN","data_amount":"5"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Origin", tt.origin)
			rec := serve(router, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				mocks.payment.AssertNotCalled(t, "CheckBalance", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRouter_Preflight(t *testing.T) {
	router, mocks := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/paystack/initialize", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := serve(router, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	mocks.payment.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
}

func TestRouter_RateLimit(t *testing.T) {
	router, mocks := newTestRouter(t, 2)
	mocks.payment.On("Verify", mock.Anything, mock.Anything).
		Return(&paymentapp.VerifyResponse{Paystack: map[string]interface{}{"status": "success"}}, nil)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/paystack/verify", strings.NewReader(`{"reference":"T1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.9:4000"
		return serve(router, req)
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	mocks.payment.AssertNumberOfCalls(t, "Verify", 2)
}

func TestRouter_WebhookBypassesOriginGuard(t *testing.T) {
	router, mocks := newTestRouter(t, 10)
	mocks.webhook.On("Handle", mock.Anything, []byte(`{"event":"charge.success"}`), "sig").
		Return(&webhookapp.Result{Status: webhookapp.StatusIgnored}, nil)

	req := httptest.NewRequest(http.MethodPost, "/paystack/webhook", strings.NewReader(`{"event":"charge.success"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("x-paystack-signature", "sig")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.webhook.AssertExpectations(t)
}

func TestRouter_WebhookBodyLimit(t *testing.T) {
	router, mocks := newTestRouter(t, 10)

	body := strings.Repeat("a", 1<<20+1)
	req := httptest.NewRequest(http.MethodPost, "/paystack/webhook", strings.NewReader(body))
	req.Header.Set("x-paystack-signature", "sig")
	rec := serve(router, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	mocks.webhook.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_Admin(t *testing.T) {
	t.Run("異常系: トークン生成はAPIキー必須", func(t *testing.T) {
		router, mocks := newTestRouter(t, 10)

		req := httptest.NewRequest(http.MethodPost, "/admin/token", strings.NewReader(`{"operator_id":"ops-1"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(router, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mocks.tokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
	})

	t.Run("正常系: APIキーでトークン生成", func(t *testing.T) {
		router, mocks := newTestRouter(t, 10)
		mocks.tokens.On("GenerateToken", mock.Anything, &authapp.GenerateTokenRequest{OperatorID: "ops-1"}).
			Return(&authapp.GenerateTokenResponse{Token: "tok", ExpiresIn: 3600, TokenType: "Bearer"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/token", strings.NewReader(`{"operator_id":"ops-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", "admin-key")
		rec := serve(router, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mocks.tokens.AssertExpectations(t)
	})

	t.Run("異常系: 残高取得はトークン必須", func(t *testing.T) {
		router, mocks := newTestRouter(t, 10)

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/admin/balance", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mocks.admin.AssertNotCalled(t, "Status", mock.Anything)
	})

	t.Run("正常系: トークンで残高取得", func(t *testing.T) {
		router, mocks := newTestRouter(t, 10)
		mocks.tokens.On("ParseToken", "tok").Return("ops-1", nil)
		mocks.admin.On("Status", mock.Anything).
			Return(&adminapp.StatusResponse{CurrentBalance: decimal.RequireFromString("10"), ServiceActive: true}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/balance", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := serve(router, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mocks.admin.AssertExpectations(t)
	})
}

func TestRouter_AdminTransactionList(t *testing.T) {
	router, mocks := newTestRouter(t, 10)
	mocks.tokens.On("ParseToken", "tok").Return("ops-1", nil)
	mocks.history.On("ListTransactions", mock.Anything, &historyapp.ListTransactionsRequest{Limit: 5, Status: "failed"}).
		Return(&historyapp.ListTransactionsResponse{Limit: 5}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/transactions?limit=5&status=failed", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.history.AssertExpectations(t)
}

func TestRouter_OpenAPI(t *testing.T) {
	router, _ := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("Origin", "https://docs.example.com")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/paystack/initialize")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
