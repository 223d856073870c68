package services_test

import (
	"errors"
	"strings"
	"testing"

	"ytdb/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "ytdlp", "fetch", "start failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ytdlp", "fetch", "start failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "ingest", "", "", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "ingest") {
		t.Fatalf("expected component in message, got %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %q", err.Error())
	}
}
