package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCodeWalksChain(t *testing.T) {
	base := New(CodeConflict, "identity already belongs to a party")
	wrapped := Wrap(base, CodeInternal, "join failed")

	if !HasCode(wrapped, CodeInternal) {
		t.Fatalf("expected outer code internal")
	}
	if !HasCode(wrapped, CodeConflict) {
		t.Fatalf("expected inner code conflict to be visible through the chain")
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Fatalf("did not expect not_found in chain")
	}
}

func TestWrapPreservesErrorsIs(t *testing.T) {
	sentinel := errors.New("boom")
	err := Wrap(fmt.Errorf("loading party: %w", sentinel), CodeInternal, "failed to load party")

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel to survive errors.Is")
	}
}

func TestCodeOfUncodedError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for uncoded error, got %s", got)
	}
	if got := CodeOf(New(CodeValidation, "name is required")); got != CodeValidation {
		t.Fatalf("expected validation, got %s", got)
	}
}
