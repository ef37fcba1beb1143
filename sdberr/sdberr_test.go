package sdberr

import (
	"errors"
	"testing"
)

func TestNewCarriesKind(t *testing.T) {
	err := New(NotFound, "no such register")
	if !Is(err, NotFound) {
		t.Fatalf("expected Is(err, NotFound) to hold")
	}
	if Is(err, KernelCall) {
		t.Fatalf("did not expect Is(err, KernelCall) to hold")
	}
}

func TestWithErrnoUnwraps(t *testing.T) {
	cause := errors.New("no such process")
	err := WithErrno("wait4 failed", cause)

	if !Is(err, KernelCall) {
		t.Fatalf("WithErrno should always be KernelCall kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped errno cause")
	}
}

func TestWithErrnoKindOverridesKind(t *testing.T) {
	cause := errors.New("operation not permitted")
	err := WithErrnoKind(AttachFailure, "could not attach", cause)

	if !Is(err, AttachFailure) {
		t.Fatalf("expected AttachFailure kind to be preserved")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := WithErrno("mmap failed", cause)
	want := "kernel call failure: mmap failed: boom"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
