package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Paystack      PaystackConfig
	InstantData   InstantDataConfig
	Email         EmailConfig
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	AdminAPI      AdminAPIConfig
	JWT           JWTConfig
	GRPC          GRPCConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// databaseCredentials DB_CREDENTIALS_JSON で渡されるサービスアカウント形式の認証情報
type databaseCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// PaystackConfig 決済プロセッサ（Paystack）設定
type PaystackConfig struct {
	SecretKey       string
	PublicKey       string
	BaseURL         string
	Currency        string
	DefaultChannels []string
	Timeout         time.Duration
}

// InstantDataConfig データ供給ベンダー（InstantData）設定
type InstantDataConfig struct {
	APIKey            string
	APIURL            string
	Timeout           time.Duration
	PreflightTimeout  time.Duration
	SupportedNetworks []string
}

// Configured ベンダー呼び出しに必要な設定が揃っているかを返す
func (c *InstantDataConfig) Configured() bool {
	return c.APIKey != "" && c.APIURL != ""
}

// EmailConfig メール送信（SendGrid）設定
type EmailConfig struct {
	APIKey        string
	APIURL        string
	FromEmail     string
	FromName      string
	OperatorEmail string
	Timeout       time.Duration
}

// CORSConfig CORS設定
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig レート制限設定
type RateLimitConfig struct {
	Window  time.Duration
	Max     int
	Burst   int
	IdleTTL time.Duration
}

// AdminAPIConfig 運用者向けAPI設定
type AdminAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// GRPCConfig gRPC（ヘルスチェック）設定
type GRPCConfig struct {
	Enabled         bool
	Port            int
	RefreshInterval time.Duration
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
}

const defaultAllowedOrigins = "https://exclusave-backend.vercel.app,https://exclusave-shop.vercel.app,http://localhost:5173,http://localhost:5174,http://localhost:3000"

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	port := getEnvAsInt("SERVER_PORT", 8080)

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 45*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "paybridge"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Paystack: PaystackConfig{
			// live → 通常 → test の順で優先
			SecretKey:       getFirstEnv("PAYSTACK_LIVE_SECRET_KEY", "PAYSTACK_SECRET_KEY", "PAYSTACK_TEST_SECRET_KEY"),
			PublicKey:       getFirstEnv("PAYSTACK_LIVE_PUBLIC_KEY", "PAYSTACK_PUBLIC_KEY", "PAYSTACK_TEST_PUBLIC_KEY"),
			BaseURL:         getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			Currency:        getEnv("PAYSTACK_CURRENCY", "GHS"),
			DefaultChannels: getEnvAsList("PAYSTACK_DEFAULT_CHANNELS", "mobile_money,ussd"),
			Timeout:         getEnvAsDuration("PAYSTACK_TIMEOUT", 30*time.Second),
		},
		InstantData: InstantDataConfig{
			APIKey:            getEnv("INSTANTDATA_API_KEY", ""),
			APIURL:            getEnv("INSTANTDATA_API_URL", "https://instantdatagh.com/api.php/orders"),
			Timeout:           getEnvAsDuration("INSTANTDATA_TIMEOUT", 15*time.Second),
			PreflightTimeout:  getEnvAsDuration("INSTANTDATA_PREFLIGHT_TIMEOUT", 10*time.Second),
			SupportedNetworks: getEnvAsList("SUPPORTED_NETWORKS", "MTN,TELECEL,AIRTELTIGO"),
		},
		Email: EmailConfig{
			APIKey:        getEnv("SENDGRID_API_KEY", ""),
			APIURL:        getEnv("SENDGRID_API_URL", "https://api.sendgrid.com/v3/mail/send"),
			FromEmail:     getEnv("SENDGRID_FROM_EMAIL", ""),
			FromName:      getEnv("EMAIL_FROM_NAME", "Exclusave Shop"),
			OperatorEmail: getEnv("OPERATOR_EMAIL", getEnv("SENDGRID_FROM_EMAIL", "")),
			Timeout:       getEnvAsDuration("SENDGRID_TIMEOUT", 30*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ORIGIN", defaultAllowedOrigins),
		},
		RateLimit: RateLimitConfig{
			Window:  time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_MS", 60_000)) * time.Millisecond,
			Max:     getEnvAsInt("RATE_LIMIT_MAX", 100),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 20),
			IdleTTL: getEnvAsDuration("RATE_LIMIT_IDLE_TTL", 10*time.Minute),
		},
		AdminAPI: AdminAPIConfig{
			Enabled:    getEnvAsBool("ADMIN_API_ENABLED", true),
			APIKey:     getEnv("ADMIN_API_KEY", ""),
			AllowedIPs: getEnvAsList("ADMIN_ALLOWED_IPS", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 8*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "paybridge"),
		},
		GRPC: GRPCConfig{
			Enabled:         getEnvAsBool("GRPC_ENABLED", true),
			Port:            getEnvAsInt("GRPC_PORT", port+1),
			RefreshInterval: getEnvAsDuration("GRPC_HEALTH_REFRESH_INTERVAL", 15*time.Second),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "paybridge"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
	}

	// サービスアカウント形式のDB認証情報が渡された場合は個別設定より優先
	if raw := getEnv("DB_CREDENTIALS_JSON", ""); raw != "" {
		if err := cfg.Database.applyCredentials(raw); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.AdminAPI.Enabled {
		if c.AdminAPI.APIKey == "" {
			return fmt.Errorf("ADMIN_API_KEY is required when ADMIN_API_ENABLED is true")
		}
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required when ADMIN_API_ENABLED is true")
		}
	}
	if c.RateLimit.Max <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must not be negative")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_MS must be positive")
	}
	return nil
}

// applyCredentials JSON形式の認証情報をDB設定へ反映
func (c *DatabaseConfig) applyCredentials(raw string) error {
	var creds databaseCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return fmt.Errorf("DB_CREDENTIALS_JSON is not valid JSON: %w", err)
	}
	if creds.Host != "" {
		c.Host = creds.Host
	}
	if creds.Port != 0 {
		c.Port = creds.Port
	}
	if creds.User != "" {
		c.User = creds.User
	}
	if creds.Password != "" {
		c.Password = creds.Password
	}
	if creds.Database != "" {
		c.Database = creds.Database
	}
	return nil
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getFirstEnv 最初に設定されている環境変数の値を返す
func getFirstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList カンマ区切りの環境変数をリストとして取得（空要素は除外）
func getEnvAsList(key, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
