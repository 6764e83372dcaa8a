package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"wrapped quota", fmt.Errorf("embed: %w", ErrQuotaExceeded), KindQuotaExceeded},
		{"double wrapped rate limit", fmt.Errorf("a: %w", fmt.Errorf("b: %w", ErrRateLimited)), KindRateLimited},
		{"collection", ErrCollectionNotFound, KindCollectionNotFound},
		{"unknown", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSafeMessage_HidesInternals(t *testing.T) {
	err := fmt.Errorf("provider said secret-key-123 is bad: %w", ErrInvalidCredentials)
	if got := SafeMessage(err); got != ErrInvalidCredentials.Error() {
		t.Errorf("SafeMessage() = %q", got)
	}
	if got := SafeMessage(errors.New("raw")); got != "internal error" {
		t.Errorf("SafeMessage(unknown) = %q", got)
	}
}

func TestIsFatalForCycle(t *testing.T) {
	if !IsFatalForCycle(fmt.Errorf("x: %w", ErrQuotaExceeded)) {
		t.Error("quota must be fatal for the cycle")
	}
	if !IsFatalForCycle(ErrInvalidCredentials) {
		t.Error("credentials must be fatal for the cycle")
	}
	if IsFatalForCycle(ErrRateLimited) {
		t.Error("rate limit is retryable, not fatal")
	}
}
