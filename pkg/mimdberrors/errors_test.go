package mimdberrors_test

import (
	"io"
	"testing"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
)

func TestNewAndError(t *testing.T) {
	err := mimdberrors.New(mimdberrors.InvalidMagic, "unexpected file magic").
		WithDetail("offset", 0)

	want := "invalid_magic: unexpected file magic"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if err.Details["offset"] != 0 {
		t.Fatalf("detail not recorded: %+v", err.Details)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	err := mimdberrors.Wrap(io.EOF, mimdberrors.IoFailure, "reading batch payload")
	if !mimdberrors.Is(err, mimdberrors.IoFailure) {
		t.Fatalf("expected IoFailure kind, got %v", err.Kind)
	}
	if err.Unwrap() != io.EOF {
		t.Fatalf("expected cause io.EOF, got %v", err.Unwrap())
	}
}

func TestWrapNil(t *testing.T) {
	if err := mimdberrors.Wrap(nil, mimdberrors.CodecFailure, "n/a"); err != nil {
		t.Fatalf("Wrap(nil, ...) = %v, want nil", err)
	}
}

func TestIsAcrossWrapChain(t *testing.T) {
	inner := mimdberrors.New(mimdberrors.SizeMismatch, "row count disagreement")
	outer := mimdberrors.Wrap(inner, mimdberrors.MalformedMetadata, "reading column meta")

	if !mimdberrors.Is(outer, mimdberrors.MalformedMetadata) {
		t.Fatalf("expected outer kind MalformedMetadata")
	}
	if mimdberrors.Is(outer, mimdberrors.SizeMismatch) {
		t.Fatalf("Is should inspect the outermost *Error only, not its cause")
	}
}
