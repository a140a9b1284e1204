package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "sourcemind.log")
	t.Cleanup(func() { Set(nil) })

	if err := Init(Config{Level: "debug", OutputPath: logPath}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	L().Info("file opened", String("path", "/proj/a.py"))
	_ = Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "file opened") || !strings.Contains(string(data), "/proj/a.py") {
		t.Errorf("Expected log entry in file, got %q", string(data))
	}
}

func TestLBeforeInitIsNop(t *testing.T) {
	Set(nil)
	// Must not panic
	L().Error("ignored")
	S().Infow("ignored", "k", "v")
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := WithRequestID(context.Background(), "req-1")
	if RequestID(ctx) != "req-1" {
		t.Errorf("Expected request id req-1, got %q", RequestID(ctx))
	}

	WithContext(ctx).Info("edit requested")

	entries := logs.FilterMessage("edit requested").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "req-1" {
		t.Errorf("Expected request_id field, got %v", entries[0].ContextMap())
	}
}
