package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTransactionStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TransactionStatus
		wantErr bool
	}{
		{name: "正常系: completed", input: "completed", want: TransactionStatusCompleted},
		{name: "正常系: failed", input: "failed", want: TransactionStatusFailed},
		{name: "正常系: pending_manual_processing", input: "pending_manual_processing", want: TransactionStatusPendingManualProcessing},
		{name: "異常系: pending", input: "pending", wantErr: true},
		{name: "異常系: 空文字", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTransactionStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestTransactionStatus_Predicates(t *testing.T) {
	assert.True(t, TransactionStatusCompleted.IsCompleted())
	assert.False(t, TransactionStatusCompleted.IsFailed())
	assert.True(t, TransactionStatusFailed.IsFailed())
	assert.True(t, TransactionStatusPendingManualProcessing.NeedsManualProcessing())
	assert.False(t, TransactionStatusPendingManualProcessing.IsCompleted())
}
