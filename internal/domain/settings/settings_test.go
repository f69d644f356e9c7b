package settings

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSystemSettings_IsServiceActive(t *testing.T) {
	active := true
	inactive := false

	tests := []struct {
		name  string
		flag  *bool
		want  bool
	}{
		{name: "未設定は有効", flag: nil, want: true},
		{name: "trueは有効", flag: &active, want: true},
		{name: "falseは停止", flag: &inactive, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSystemSettings(decimal.NewFromInt(10), tt.flag, time.Now())
			assert.Equal(t, tt.want, s.IsServiceActive())
		})
	}
}

func TestSystemSettings_Getters(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewSystemSettings(decimal.RequireFromString("9.25"), nil, at)

	assert.True(t, s.CurrentBalance().Equal(decimal.RequireFromString("9.25")))
	assert.Equal(t, at, s.LastUpdated())
}
