package services_test

import (
	"context"
	"testing"

	"ytdb/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithContentID(ctx, "bnu2L29c0nM")
	ctx = services.WithTarget(ctx, "audio")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.ContentIDFromContext(ctx); !ok || id != "bnu2L29c0nM" {
		t.Fatalf("unexpected content id: %v %v", id, ok)
	}
	if target, ok := services.TargetFromContext(ctx); !ok || target != "audio" {
		t.Fatalf("unexpected target: %v %v", target, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithContentID(ctx, "")
	ctx = services.WithTarget(ctx, "")
	if _, ok := services.ContentIDFromContext(ctx); ok {
		t.Fatal("expected no content id value")
	}
	if _, ok := services.TargetFromContext(ctx); ok {
		t.Fatal("expected no target value")
	}
}
