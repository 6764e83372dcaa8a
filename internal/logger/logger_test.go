package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		t.Run(env, func(t *testing.T) {
			l, err := New(env, "")
			if err != nil {
				t.Fatalf("New(%q): %v", env, err)
			}
			if l == nil {
				t.Fatal("nil logger")
			}
		})
	}
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("prod", "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn must be enabled at warn level")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("staging", ""); err == nil {
		t.Error("expected error for unknown env")
	}
	if _, err := New("local", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must never return nil")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))
	FromContext(ctx).Info("hello")

	if logs.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", logs.Len())
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))
	ctx = With(ctx, zap.String("collection", "articles"))
	FromContext(ctx).Info("scoped")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["collection"]; got != "articles" {
		t.Errorf("collection = %v", got)
	}

	bare := With(context.Background(), zap.String("k", "v"))
	if bare != context.Background() {
		t.Error("With without a logger must return ctx unchanged")
	}
}
