package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"paybridge/internal/infrastructure/config"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/infrastructure/ratelimit"
	"paybridge/internal/presentation/rest/handler"
	restmiddleware "paybridge/internal/presentation/rest/middleware"
)

// Services ルーターが呼び出すアプリケーションサービス
type Services struct {
	Payment handler.PaymentService
	Webhook handler.WebhookService
	Admin   handler.AdminService
	History handler.HistoryService
	Tokens  interface {
		handler.TokenIssuer
		restmiddleware.TokenParser
	}
	Health handler.HealthChecker
}

// Router REST APIルーター
type Router struct {
	echo           *echo.Echo
	cfg            *config.Config
	paymentHandler *handler.PaymentHandler
	webhookHandler *handler.WebhookHandler
	adminHandler   *handler.AdminHandler
	historyHandler *handler.HistoryHandler
	healthHandler  *handler.HealthHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	limiter *ratelimit.Limiter,
	services Services,
) (*Router, error) {
	if services.Payment == nil || services.Webhook == nil || services.Admin == nil || services.History == nil || services.Tokens == nil || services.Health == nil {
		return nil, fmt.Errorf("all services are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	// エラーはErrorHandlerMiddlewareで応答済み。未応答のものだけ最低限返す
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		_ = c.JSON(http.StatusInternalServerError, restmiddleware.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	r := &Router{
		echo:           e,
		cfg:            cfg,
		paymentHandler: handler.NewPaymentHandler(services.Payment),
		webhookHandler: handler.NewWebhookHandler(services.Webhook),
		adminHandler:   handler.NewAdminHandler(services.Admin, services.Tokens),
		historyHandler: handler.NewHistoryHandler(services.History),
		healthHandler:  handler.NewHealthHandler(services.Health),
	}

	// ルーティングの設定（フロントエンドの配置に合わせて / と /api の両方で公開）
	for _, prefix := range []string{"", "/api"} {
		r.setupRoutes(e.Group(prefix), logger, metrics, limiter, services.Tokens)
	}

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/ping")
	})

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// リクエストIDの設定
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware(cfg.OpenTelemetry.ServiceName))

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func (r *Router) setupRoutes(
	g *echo.Group,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	limiter *ratelimit.Limiter,
	parser restmiddleware.TokenParser,
) {
	preflight := []string{http.MethodPost, http.MethodOptions}

	// 決済関連エンドポイント（Origin検査とレート制限）
	paystack := g.Group("/paystack")
	guarded := paystack.Group("",
		restmiddleware.OriginGuardMiddleware(r.cfg.CORS.AllowedOrigins, logger),
		restmiddleware.RateLimitMiddleware(limiter, logger, metrics),
	)
	guarded.Match(preflight, "/initialize", r.paymentHandler.Initialize)
	guarded.Match(preflight, "/verify", r.paymentHandler.Verify)
	guarded.Match(preflight, "/check-balance", r.paymentHandler.CheckBalance)

	// Webhook（署名で認証するためOrigin検査・レート制限なし）
	paystack.POST("/webhook", r.webhookHandler.Handle, middleware.BodyLimit("1M"))

	// 疎通確認・ヘルスチェック（認証不要）
	pingCORS := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
	g.Match([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, "/ping", r.healthHandler.Ping, pingCORS)
	g.GET("/health", r.healthHandler.Health)

	// 運用者向けエンドポイント
	admin := g.Group("/admin")
	admin.POST("/token", r.adminHandler.GenerateToken, restmiddleware.APIKeyMiddleware(&r.cfg.AdminAPI, logger))

	authGroup := admin.Group("", restmiddleware.AuthMiddleware(parser, logger))
	authGroup.GET("/balance", r.adminHandler.GetStatus)
	authGroup.PUT("/balance", r.adminHandler.SetBalance)
	authGroup.PUT("/service", r.adminHandler.SetService)
	authGroup.GET("/transactions", r.historyHandler.ListTransactions)
	authGroup.GET("/transactions/:reference", r.adminHandler.GetTransaction)
}

// Handler テスト用にhttp.Handlerとして返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	r.echo.Server.ReadTimeout = r.cfg.Server.ReadTimeout
	r.echo.Server.WriteTimeout = r.cfg.Server.WriteTimeout
	r.echo.Server.IdleTimeout = r.cfg.Server.IdleTimeout
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
