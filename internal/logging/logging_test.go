package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"soundlab/internal/logging"
	"soundlab/internal/services"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestComponentLoggerTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewComponentLogger(jsonLogger(&buf), "mixer")
	logger.Info("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record[logging.FieldComponent] != "mixer" {
		t.Fatalf("component = %v, want mixer", record[logging.FieldComponent])
	}
}

func TestWithContextPullsAnnotations(t *testing.T) {
	ctx := services.WithSessionID(context.Background(), 7)
	ctx = services.WithJobID(ctx, "job-1")

	var buf bytes.Buffer
	logging.WithContext(ctx, jsonLogger(&buf)).Info("working")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record[logging.FieldSessionID] != float64(7) {
		t.Fatalf("session id = %v, want 7", record[logging.FieldSessionID])
	}
	if record[logging.FieldJobID] != "job-1" {
		t.Fatalf("job id = %v, want job-1", record[logging.FieldJobID])
	}
}

func TestWithContextOnBareContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	logging.WithContext(context.Background(), jsonLogger(&buf)).Info("plain")
	if strings.Contains(buf.String(), logging.FieldJobID) {
		t.Fatalf("bare context must add no annotations: %s", buf.String())
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("dropped", logging.Error(nil), logging.Int("n", 1))
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger must report disabled")
	}
}
