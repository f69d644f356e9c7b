package balance

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "正常系: 通貨記号付き", input: "GH₵9.25", want: "9.25"},
		{name: "正常系: 通貨記号付きの整数部が大きい値", input: "GH₵100.00", want: "100"},
		{name: "正常系: 記号なし", input: "9.25", want: "9.25"},
		{name: "正常系: 記号と数値の間に空白", input: "GH₵ 1 234.50 ", want: "1234.5"},
		{name: "正常系: 桁区切りのカンマ", input: "GH₵1,234.50", want: "1234.5"},
		{name: "異常系: 空文字", input: "", wantErr: true},
		{name: "異常系: 記号のみ", input: "GH₵", wantErr: true},
		{name: "異常系: 数値でない", input: "N/A", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBalance)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
		want     string
		wantOK   bool
		wantErr  bool
	}{
		{
			name:     "正常系: remaining_balanceが最優先",
			response: map[string]interface{}{"balance": "GH₵1.00", "remaining_balance": "GH₵9.25"},
			want:     "9.25",
			wantOK:   true,
		},
		{
			name:     "正常系: balanceがcurrent_balanceより優先",
			response: map[string]interface{}{"current_balance": "GH₵3.00", "balance": "GH₵2.00"},
			want:     "2",
			wantOK:   true,
		},
		{
			name:     "正常系: accountBalanceのみ",
			response: map[string]interface{}{"accountBalance": "GH₵4.50"},
			want:     "4.5",
			wantOK:   true,
		},
		{
			name:     "正常系: 空文字のフィールドは飛ばす",
			response: map[string]interface{}{"remaining_balance": "", "balance": "GH₵7.00"},
			want:     "7",
			wantOK:   true,
		},
		{
			name:     "正常系: 数値型",
			response: map[string]interface{}{"balance": 12.5},
			want:     "12.5",
			wantOK:   true,
		},
		{
			name:     "正常系: json.Number",
			response: map[string]interface{}{"balance": json.Number("88.10")},
			want:     "88.1",
			wantOK:   true,
		},
		{
			name:     "正常系: ネストしたdata",
			response: map[string]interface{}{"status": "success", "data": map[string]interface{}{"remaining_balance": "GH₵50.00"}},
			want:     "50",
			wantOK:   true,
		},
		{
			name:     "正常系: 残高フィールドなし",
			response: map[string]interface{}{"status": "success"},
			wantOK:   false,
		},
		{
			name:     "正常系: nil",
			response: nil,
			wantOK:   false,
		},
		{
			name:     "異常系: 不正な残高文字列",
			response: map[string]interface{}{"remaining_balance": "unknown"},
			want:     "0",
			wantOK:   true,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Extract(tt.response)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBalance)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantOK {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestRawString(t *testing.T) {
	assert.Equal(t, "GH₵9.25", RawString(map[string]interface{}{"remaining_balance": "GH₵9.25"}))
	assert.Equal(t, "GH₵1.00", RawString(map[string]interface{}{"data": map[string]interface{}{"balance": "GH₵1.00"}}))
	assert.Equal(t, "12.5", RawString(map[string]interface{}{"balance": 12.5}))
	assert.Equal(t, "", RawString(map[string]interface{}{"status": "ok"}))
	assert.Equal(t, "", RawString(nil))
}

func TestIsSufficient(t *testing.T) {
	assert.True(t, IsSufficient(decimal.NewFromInt(10), decimal.NewFromInt(10)))
	assert.True(t, IsSufficient(decimal.RequireFromString("10.01"), decimal.NewFromInt(10)))
	assert.False(t, IsSufficient(decimal.RequireFromString("9.99"), decimal.NewFromInt(10)))
}
