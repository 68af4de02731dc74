package services

import (
	"errors"
	"testing"
)

func TestWrapTagsAndChains(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrUnavailable, "mixer", "export", "write wav", cause)

	if !errors.Is(err, ErrUnavailable) {
		t.Fatal("wrapped error must match its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error must chain to the cause")
	}
	want := "resource unavailable: mixer: export: write wav: disk full"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker must default to transient")
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestPermanent(t *testing.T) {
	if !Permanent(Wrap(ErrNotFound, "store", "get", "", nil)) {
		t.Fatal("not-found errors are permanent")
	}
	if !Permanent(Wrap(ErrValidation, "config", "load", "", nil)) {
		t.Fatal("validation errors are permanent")
	}
	if Permanent(Wrap(ErrTransient, "render", "mix", "", nil)) {
		t.Fatal("transient errors are retryable")
	}
	if Permanent(errors.New("plain")) {
		t.Fatal("untagged errors are retryable")
	}
}
