package domain

import (
	"errors"
	"testing"
	"time"
)

func TestExtractLinkCode(t *testing.T) {
	tests := []struct {
		name      string
		narration string
		want      string
	}{
		{name: "bare code", narration: "PL-7F3K2Q", want: "7F3K2Q"},
		{name: "code inside narration", narration: "transfer for PL-ABC123 thanks", want: "ABC123"},
		{name: "code with trailing text", narration: "PL-XY99ZZ/wedding", want: "XY99ZZ"},
		{name: "no code", narration: "monthly savings", want: ""},
		{name: "lowercase prefix does not match", narration: "pl-abc123", want: ""},
		{name: "too short", narration: "PL-AB", want: ""},
		{name: "empty narration", narration: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLinkCode(tt.narration); got != tt.want {
				t.Errorf("ExtractLinkCode(%q) = %q, want %q", tt.narration, got, tt.want)
			}
		})
	}
}

func TestPaymentLink_ValidateUsable(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		link    PaymentLink
		wantErr error
	}{
		{
			name: "active multi-use link",
			link: PaymentLink{Active: true},
		},
		{
			name:    "inactive link",
			link:    PaymentLink{Active: false},
			wantErr: ErrLinkInactive,
		},
		{
			name:    "expired link",
			link:    PaymentLink{Active: true, ExpiresAt: &past},
			wantErr: ErrLinkExpired,
		},
		{
			name: "not yet expired link",
			link: PaymentLink{Active: true, ExpiresAt: &future},
		},
		{
			name:    "consumed single-use link",
			link:    PaymentLink{Active: true, SingleUse: true, Consumed: true},
			wantErr: ErrLinkAlreadyUsed,
		},
		{
			name: "unconsumed single-use link",
			link: PaymentLink{Active: true, SingleUse: true},
		},
		{
			name: "consumed multi-use link stays usable",
			link: PaymentLink{Active: true, Consumed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.link.ValidateUsable(now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUsable() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
