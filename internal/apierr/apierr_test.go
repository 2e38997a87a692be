package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := NotFound("thread missing")
	if !Is(err, KindNotFound) {
		t.Fatalf("expected KindNotFound")
	}
	if Is(err, KindIllegalState) {
		t.Fatalf("did not expect KindIllegalState")
	}
}

func TestIsLooksThroughWrapping(t *testing.T) {
	err := fmt.Errorf("context: %w", BudgetExceeded("max reached"))
	if !Is(err, KindBudgetExceeded) {
		t.Fatalf("expected Is to unwrap to KindBudgetExceeded")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := ModelUnavailable(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause")
	}
	if !Is(err, KindModelUnavailable) {
		t.Fatalf("expected KindModelUnavailable")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("plain"), KindNotFound) {
		t.Fatalf("plain error should not match any kind")
	}
}
