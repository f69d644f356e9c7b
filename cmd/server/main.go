package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminapp "paybridge/internal/application/admin"
	authapp "paybridge/internal/application/auth"
	"paybridge/internal/application/fulfillment"
	historyapp "paybridge/internal/application/history"
	"paybridge/internal/application/notification"
	paymentapp "paybridge/internal/application/payment"
	txapp "paybridge/internal/application/transaction"
	webhookapp "paybridge/internal/application/webhook"
	"paybridge/internal/domain/provisioning"
	"paybridge/internal/infrastructure/config"
	"paybridge/internal/infrastructure/instantdata"
	otelinfra "paybridge/internal/infrastructure/observability/otel"
	"paybridge/internal/infrastructure/paystack"
	"paybridge/internal/infrastructure/persistence/mysql"
	"paybridge/internal/infrastructure/ratelimit"
	"paybridge/internal/infrastructure/sendgrid"
	grpcserver "paybridge/internal/presentation/grpc"
	"paybridge/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer(cfg.OpenTelemetry.ServiceName)
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics(cfg.OpenTelemetry.ServiceName)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	// リポジトリの初期化
	transactionRepo := mysql.NewTransactionRepository(db)
	settingsRepo := mysql.NewSettingsRepository(db)
	pricingRepo := mysql.NewPricingRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// 外部サービスクライアントの初期化
	gateway := paystack.NewClient(&cfg.Paystack)
	provider := instantdata.NewClient(&cfg.InstantData)
	mailer := sendgrid.NewClient(&cfg.Email)

	if !gateway.Configured() {
		logger.Warn(ctx, "Paystack secret key not configured; payment endpoints will fail", nil)
	}
	if !provider.Configured() {
		logger.Warn(ctx, "InstantData API not configured; orders will need manual processing", nil)
	}
	if !mailer.Configured() {
		logger.Warn(ctx, "SendGrid not configured; notifications will be skipped", nil)
	}

	networks := provisioning.NewNetworks(cfg.InstantData.SupportedNetworks)

	// アプリケーションサービスの初期化
	store := txapp.NewTransactionStore(transactionRepo, settingsRepo, pricingRepo, txManager, logger)
	dispatcher := notification.NewDispatcher(mailer, cfg.Email.OperatorEmail, cfg.Email.FromName, logger, metrics)
	fulfiller := fulfillment.NewService(provider, store, dispatcher, logger, metrics)

	paymentAppService := paymentapp.NewPaymentApplicationService(
		gateway,
		provider,
		fulfiller,
		store,
		paymentapp.Options{
			Currency:        cfg.Paystack.Currency,
			DefaultChannels: cfg.Paystack.DefaultChannels,
			Networks:        networks,
		},
		logger,
		metrics,
	)
	webhookAppService := webhookapp.NewWebhookApplicationService(gateway, fulfiller, store, networks, logger, metrics)
	adminAppService := adminapp.NewAdminApplicationService(store, logger, metrics)
	historyAppService := historyapp.NewHistoryApplicationService(store, logger, metrics)
	authAppService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	// レート制限（アイドルなバケットを定期的に掃除）
	limiter := ratelimit.NewLimiter(cfg.RateLimit)
	limiter.Start(cfg.RateLimit.Window)
	defer limiter.Close()

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, limiter, rest.Services{
		Payment: paymentAppService,
		Webhook: webhookAppService,
		Admin:   adminAppService,
		History: historyAppService,
		Tokens:  authAppService,
		Health:  db,
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCヘルスチェックサーバーの初期化
	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg, logger, db)
		if err != nil {
			log.Fatalf("Failed to create gRPC server: %v", err)
		}
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address":     address,
			"environment": cfg.Environment,
		})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "REST API server error", err, nil)
			quit <- syscall.SIGTERM
		}
	}()

	// gRPCサーバーを別ゴルーチンで起動
	if grpcSrv != nil {
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Error(ctx, "gRPC server error", err, nil)
			}
		}()
	}

	// シグナルを待機
	<-quit
	logger.Info(ctx, "Shutting down servers", nil)

	// グレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// REST APIサーバーのシャットダウン
	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down REST API server", err, nil)
	}

	// gRPCサーバーのシャットダウン
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error(ctx, "Error shutting down gRPC server", err, nil)
		}
	}

	logger.Info(ctx, "Servers stopped", nil)
}
