package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"

	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

func TestMetricsMiddleware(t *testing.T) {
	otel.SetMeterProvider(noop.NewMeterProvider())
	metrics, err := otelinfra.NewMetrics("test-meter")
	require.NoError(t, err)

	tests := []struct {
		name       string
		handler    echo.HandlerFunc
		wantErr    bool
		wantStatus int
	}{
		{
			name:       "正常系: 成功レスポンス",
			handler:    func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "正常系: リダイレクト",
			handler:    func(c echo.Context) error { return c.Redirect(http.StatusFound, "/ping") },
			wantStatus: http.StatusFound,
		},
		{
			name:       "正常系: 書き込み済みのクライアントエラー",
			handler:    func(c echo.Context) error { return c.JSON(http.StatusTooManyRequests, ErrorResponse{Message: RateLimitMessage}) },
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "正常系: 書き込み済みのサーバーエラー",
			handler:    func(c echo.Context) error { return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "x"}) },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:    "異常系: エラーはそのまま返す",
			handler: func(c echo.Context) error { return errors.New("boom") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/test")

			err := MetricsMiddleware(metrics)(tt.handler)(c)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
