package kingcoinerrors_test

import (
	"errors"
	"fmt"
	"testing"

	kingcoinerrors "github.com/michloj571/kingcoin/internal/errors"
)

func TestSentinelErrorsMatchViaErrorsIs(t *testing.T) {
	wrapped := errors.New("wrapping context: " + kingcoinerrors.ErrChainEmpty.Error())
	if errors.Is(wrapped, kingcoinerrors.ErrChainEmpty) {
		t.Fatal("a string-built error should not satisfy errors.Is")
	}

	wrapped = errorsWrapf(kingcoinerrors.ErrChainEmpty)
	if !errors.Is(wrapped, kingcoinerrors.ErrChainEmpty) {
		t.Fatal("an %w-wrapped sentinel should satisfy errors.Is")
	}
}

func errorsWrapf(err error) error {
	return fmt.Errorf("context: %w", err)
}

func TestTransactionValidationErrorMessage(t *testing.T) {
	err := kingcoinerrors.NewTransactionValidationError("block#7", "signature invalid")
	want := "transaction validation failed: signature invalid (block: block#7)"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestBlockValidationErrorMessage(t *testing.T) {
	err := kingcoinerrors.NewBlockValidationError("candidate hash", "does not recompute")
	want := "block validation failed: does not recompute (candidate hash)"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestBlockCreationErrorMessage(t *testing.T) {
	err := kingcoinerrors.NewBlockCreationError("candidate requires a previous block")
	want := "block creation failed: candidate requires a previous block"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestTransactionCountErrorMessage(t *testing.T) {
	err := kingcoinerrors.NewTransactionCountError(4, 2)
	want := "not enough uncommitted transactions to forge: required 4, have 2"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestBalanceErrorMessage(t *testing.T) {
	err := kingcoinerrors.NewBalanceError("negative after transfer")
	want := "balance error: negative after transfer"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
