package telemetry_test

import (
	"encoding/json"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/datachat/internal/telemetry"
)

func TestEmit_Gating(t *testing.T) {
	// Run in a subprocess so startup-evaluated telemetry config sees CHAT_OBSERVE_JSON=0.
	tmpDir := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=TestEmitGatingProbe")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"CHAT_OBSERVE_JSON=0",
		"CHAT_ARTIFACTS_DIR="+tmpDir,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("subprocess error: %v\n%s", err, string(out))
	}
	if !strings.Contains(string(out), "no_file=true") {
		t.Fatalf("expected no_file=true, got output:\n%s", string(out))
	}
}

func TestEmitGatingProbe(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	telemetry.Emit("test_event", map[string]any{"foo": "bar"})
	if _, err := os.Stat(filepath.Join(telemetry.ArtifactsDir(), "events.jsonl")); os.IsNotExist(err) {
		println("no_file=true")
	} else {
		println("no_file=false")
	}
}

func readLines(t *testing.T, base string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(base, "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestEmit_HappyPath(t *testing.T) {
	base := observeInto(t)

	telemetry.Emit("model_call", map[string]any{"input_tokens": 42, "ok": true})

	lines := readLines(t, base)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "model_call" {
		t.Errorf("expected event=model_call, got %v", event["event"])
	}
	if event["input_tokens"] != float64(42) || event["ok"] != true {
		t.Errorf("fields not preserved: %#v", event)
	}
	timeStr, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, timeStr); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_MultipleEmissions(t *testing.T) {
	base := observeInto(t)

	telemetry.Emit(telemetry.EventPromptBuilt, map[string]any{"id": 1})
	telemetry.Emit(telemetry.EventModelCall, map[string]any{"id": 2})
	telemetry.Emit(telemetry.EventSummarize, map[string]any{"id": 3})

	lines := readLines(t, base)
	want := []string{"prompt_built", "model_call", "summarize"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i+1, err)
		}
		if event["event"] != want[i] {
			t.Errorf("line %d: expected event=%s, got %v", i+1, want[i], event["event"])
		}
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	observeInto(t)

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 || fields["key"] != "value" {
		t.Fatalf("caller map changed: %#v", fields)
	}
}

func TestEmit_ErrorHandling_MarshalError(t *testing.T) {
	base := observeInto(t)

	// NaN cannot be marshaled by encoding/json.
	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(filepath.Join(base, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
}

func TestEmit_ErrorHandling_DirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAT_ARTIFACTS_DIR", filepath.Join(blocker, "events"))
	t.Setenv("CHAT_OBSERVE_JSON", "1")

	// mkdir fails; Emit reports on stderr and returns.
	telemetry.Emit("x", map[string]any{"a": 1})
}

func TestEmit_NilFields(t *testing.T) {
	base := observeInto(t)

	telemetry.Emit("nil_fields", nil)

	lines := readLines(t, base)
	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(event) != 2 || event["event"] != "nil_fields" {
		t.Fatalf("expected exactly event and time, got %#v", event)
	}
}
