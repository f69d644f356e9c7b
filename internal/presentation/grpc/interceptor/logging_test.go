package interceptor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	otelinfra "paybridge/internal/infrastructure/observability/otel"
)

func testLogger(buf *bytes.Buffer) *otelinfra.Logger {
	return otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), buf)
}

func TestLoggingInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	tests := []struct {
		name        string
		handlerErr  error
		wantErr     bool
		wantLogPart string
	}{
		{
			name:        "正常系: 成功を記録",
			wantLogPart: "",
		},
		{
			name:        "異常系: 失敗をエラーとして記録",
			handlerErr:  status.Error(codes.Unavailable, "db down"),
			wantErr:     true,
			wantLogPart: "gRPC request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ic := LoggingInterceptor(testLogger(&buf))

			resp, err := ic(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
				if tt.handlerErr != nil {
					return nil, tt.handlerErr
				}
				return "ok", nil
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, codes.Unavailable, status.Code(err))
				assert.Contains(t, buf.String(), tt.wantLogPart)
				assert.Contains(t, buf.String(), info.FullMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", resp)
		})
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	var buf bytes.Buffer
	ic := RecoveryInterceptor(testLogger(&buf))
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Panic"}

	resp, err := ic(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic(errors.New("boom"))
	})

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, buf.String(), "gRPC handler panicked")
}
