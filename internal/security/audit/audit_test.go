package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aryan0dhankhar/connectcoach/internal/infrastructure/logger"
)

func TestLogAuth_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := logger.WithRequestID(context.Background(), "req-1")
	al.LogAuth(ctx, ActionLogin, 7, "a@x.com", "success")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if rec["action"] != ActionLogin || rec["actor_id"] != "7" || rec["resource_id"] != "7" {
		t.Errorf("unexpected record: %v", rec)
	}
	if rec["request_id"] != "req-1" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
	if rec["component"] != "audit" {
		t.Errorf("component = %v", rec["component"])
	}
}

func TestLogAuth_AnonymousActor(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.LogAuth(context.Background(), ActionLogin, 0, "a@x.com", "invalid_credentials")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if rec["actor_id"] != "" {
		t.Errorf("expected empty actor, got %v", rec["actor_id"])
	}
}
