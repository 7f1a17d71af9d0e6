package domain

import "testing"

func TestWithdrawalRequest_Refundable(t *testing.T) {
	tests := []struct {
		status WithdrawalStatus
		want   bool
	}{
		{WithdrawalStatusPending, true},
		{WithdrawalStatusProcessing, true},
		{WithdrawalStatusCompleted, false},
		{WithdrawalStatusFailed, false},
	}

	for _, tt := range tests {
		w := WithdrawalRequest{Status: tt.status}
		if got := w.Refundable(); got != tt.want {
			t.Errorf("Refundable() with status %s = %v, want %v", tt.status, got, tt.want)
		}
		if w.Terminal() == tt.want {
			t.Errorf("Terminal() and Refundable() must disagree for status %s", tt.status)
		}
	}
}
