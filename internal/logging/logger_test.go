package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streampay/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("stream created", logging.StreamID(7), logging.String("sender", "0xabc"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("parse log record: %v", err)
	}
	if record["msg"] != "stream created" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["stream_id"] != float64(7) {
		t.Fatalf("unexpected stream_id: %v", record["stream_id"])
	}
}

func TestNewDebugSuppressedAtInfoLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("not visible")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(bytes.TrimSpace(data)) != 0 {
		t.Fatalf("expected empty log, got %q", data)
	}
}

func TestConsoleHandlerLiftsComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logging.NewComponentLogger(logger, "ledger").Info("settled", logging.Uint64("balance", 50))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(bytes.TrimSpace(data))
	if !strings.Contains(line, "[ledger] settled") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "balance=50") {
		t.Fatalf("expected balance attr in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as attr in %q", line)
	}
}

func TestFromContextFallsBackToNop(t *testing.T) {
	logger := logging.FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}

	ctx := logging.WithContext(context.Background(), logging.NewNop())
	if logging.FromContext(ctx) == nil {
		t.Fatal("expected stored logger")
	}
}
