package fserr_test

import (
	"errors"
	"fmt"
	"testing"

	"imgfs/internal/fserr"
)

func TestNewHasNoCause(t *testing.T) {
	t.Parallel()

	err := fserr.New(fserr.NoSuchFileOrDirectory, "/x")
	if errors.Unwrap(err) != nil {
		t.Fatalf("New should not carry a wrapped cause, got %v", errors.Unwrap(err))
	}
}

func TestWrapPreservesCauseInChain(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("block: read block 5: some I/O failure")
	err := fserr.Wrap(fserr.IOFailure, "/x", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}

func TestIsComparesKindOnly(t *testing.T) {
	t.Parallel()

	err := fserr.Wrap(fserr.IOFailure, "/x", fmt.Errorf("boom"))
	if !errors.Is(err, fserr.New(fserr.IOFailure, "")) {
		t.Fatal("expected errors.Is to match on Kind regardless of Path or cause")
	}
	if errors.Is(err, fserr.New(fserr.Permission, "")) {
		t.Fatal("expected errors.Is to reject a different Kind")
	}
}

func TestAsRecoversError(t *testing.T) {
	t.Parallel()

	err := fserr.Wrap(fserr.FilesystemFull, "/x", fmt.Errorf("boom"))
	var fe *fserr.Error
	if !errors.As(err, &fe) {
		t.Fatal("errors.As should recover a *fserr.Error")
	}
	if fe.Kind != fserr.FilesystemFull || fe.Path != "/x" {
		t.Fatalf("got %+v", fe)
	}
}
