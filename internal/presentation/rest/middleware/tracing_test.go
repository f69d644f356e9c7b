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
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingMiddleware(t *testing.T) {
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
			name:       "正常系: サーバーエラー",
			handler:    func(c echo.Context) error { return c.String(http.StatusInternalServerError, "x") },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:    "異常系: エラーを記録して返す",
			handler: func(c echo.Context) error { return errors.New("test error") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			otel.SetTracerProvider(tp)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/paystack/verify", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/paystack/verify")

			var inner trace.SpanContext
			handler := TracingMiddleware("paybridge")(func(c echo.Context) error {
				inner = trace.SpanContextFromContext(c.Request().Context())
				return tt.handler(c)
			})

			err := handler(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, rec.Code)
			}

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "POST /paystack/verify", spans[0].Name())
			assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
			// ハンドラーにはスパン付きのコンテキストが渡る
			assert.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
		})
	}
}

func TestTracingMiddleware_ExtractsTraceContext(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)

	parentCtx, parent := tp.Tracer("test").Start(req.Context(), "parent")
	propagation.TraceContext{}.Inject(parentCtx, propagation.HeaderCarrier(req.Header))
	parent.End()

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/ping")

	handler := TracingMiddleware("paybridge")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().TraceID(), spans[1].SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[1].Parent().SpanID())
}
