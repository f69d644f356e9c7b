package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) otelinfra.LogEntry {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry otelinfra.LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		handlerErr    error
		status        int
		expectedLevel string
		expectedMsg   string
	}{
		{name: "正常系: 完了ログ", status: http.StatusOK, expectedLevel: "INFO", expectedMsg: "HTTP request completed"},
		{name: "正常系: 4xxでもレスポンス済みなら完了ログ", status: http.StatusBadRequest, expectedLevel: "INFO", expectedMsg: "HTTP request completed"},
		{name: "異常系: 未処理のエラー", handlerErr: errors.New("test error"), expectedLevel: "ERROR", expectedMsg: "HTTP request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/paystack/verify", nil)
			req.RemoteAddr = "127.0.0.1:12345"
			req.Header.Set("User-Agent", "test-agent")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

			middleware := LoggingMiddleware(logger)
			handler := middleware(func(c echo.Context) error {
				if tt.handlerErr != nil {
					return tt.handlerErr
				}
				return c.String(tt.status, "response")
			})

			err := handler(c)
			assert.Equal(t, tt.handlerErr, err)

			entry := lastEntry(t, &buf)
			assert.Equal(t, tt.expectedLevel, entry.Level)
			assert.Equal(t, tt.expectedMsg, entry.Message)
			assert.Equal(t, "/paystack/verify", entry.Fields["path"])
			assert.Equal(t, "req-1", entry.Fields["request_id"])
			if tt.handlerErr != nil {
				assert.Equal(t, "test error", entry.Fields["error"])
			} else {
				assert.Equal(t, float64(tt.status), entry.Fields["status_code"])
			}
		})
	}
}
