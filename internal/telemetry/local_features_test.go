package telemetry_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/datachat/internal/metrics"
	"github.com/petasbytes/datachat/internal/telemetry"
)

// readLastJSONL returns the last non-empty JSON object in baseDir/events.jsonl.
func readLastJSONL(t *testing.T, baseDir string) (map[string]any, error) {
	t.Helper()
	f, err := os.Open(filepath.Join(baseDir, "events.jsonl"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var last string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			last = txt
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if last == "" {
		return nil, errors.New("no lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func observeInto(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("CHAT_ARTIFACTS_DIR", base)
	t.Setenv("CHAT_OBSERVE_JSON", "1")
	return base
}

func TestEmitLocalFeatures_HappyPath(t *testing.T) {
	base := observeInto(t)

	ctx := telemetry.WithTurnID(context.Background(), "turn-xyz")
	q := "Which product had the\nhighest revenue in Q3?"
	want := metrics.CountFeatures(q)

	telemetry.EmitLocalFeatures(ctx, q)

	m, err := readLastJSONL(t, base)
	if err != nil {
		t.Fatalf("read last jsonl: %v", err)
	}
	if m["event"] != "local_features" || m["turn_id"] != "turn-xyz" || m["features_version"] != "2" {
		t.Fatalf("unexpected envelope: %#v", m)
	}
	qm, ok := m["question"].(map[string]any)
	if !ok {
		t.Fatalf("question field missing or wrong type: %T", m["question"])
	}
	// numbers decode as float64
	if qm["bytes"] != float64(want.Bytes) ||
		qm["runes"] != float64(want.Runes) ||
		qm["words"] != float64(want.Words) ||
		qm["lines"] != float64(want.Lines) ||
		qm["tokens"] != float64(want.Tokens) {
		t.Fatalf("features mismatch: got %#v, want %#v", qm, want)
	}
}

func TestEmitLocalFeatures_ObserveOff_NoEvent(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CHAT_ARTIFACTS_DIR", base)
	t.Setenv("CHAT_OBSERVE_JSON", "0")

	telemetry.EmitLocalFeatures(context.Background(), "some text")

	if _, err := os.Stat(filepath.Join(base, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events.jsonl when observe=0, got err=%v", err)
	}
}

func TestEmitLocalFeatures_EmptyInput_Zeros(t *testing.T) {
	base := observeInto(t)

	telemetry.EmitLocalFeatures(context.Background(), "")

	m, err := readLastJSONL(t, base)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	qm := m["question"].(map[string]any)
	for _, k := range []string{"bytes", "runes", "words", "lines", "tokens"} {
		if qm[k] != float64(0) {
			t.Fatalf("expected %s=0, got %#v", k, qm)
		}
	}
}

func TestEmitLocalFeatures_Multibyte(t *testing.T) {
	base := observeInto(t)

	telemetry.EmitLocalFeatures(context.Background(), "héllö 世界") // bytes=14, runes=8, words=2, lines=1

	m, err := readLastJSONL(t, base)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	qm := m["question"].(map[string]any)
	if qm["bytes"] != float64(14) || qm["runes"] != float64(8) || qm["words"] != float64(2) || qm["lines"] != float64(1) || qm["tokens"] != float64(2) {
		t.Fatalf("multibyte mismatch: %#v", qm)
	}
}

func TestEmitLocalFeatures_NoRawTextLeakage(t *testing.T) {
	base := observeInto(t)

	q := "Foo Bar\nBaz revenue"
	telemetry.EmitLocalFeatures(context.Background(), q)

	b, err := os.ReadFile(filepath.Join(base, "events.jsonl"))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if strings.Contains(string(b), "revenue") {
		t.Fatalf("raw question text found in events.jsonl")
	}
}

func TestEmitLocalFeatures_ArtifactsDirSpaces_AndNewlineTermination(t *testing.T) {
	base := filepath.Join(t.TempDir(), "dir with spaces")
	t.Setenv("CHAT_ARTIFACTS_DIR", base)
	t.Setenv("CHAT_OBSERVE_JSON", "1")

	telemetry.EmitLocalFeatures(context.Background(), "one")
	telemetry.EmitLocalFeatures(context.Background(), "two")

	b, err := os.ReadFile(filepath.Join(base, "events.jsonl"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d", len(lines))
	}
	if b[len(b)-1] != '\n' {
		t.Fatalf("expected newline-terminated JSONL file")
	}
}
