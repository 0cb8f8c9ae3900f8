package telemetry

import (
	"os"
)

// DefaultArtifactsDir holds events.jsonl when CHAT_ARTIFACTS_DIR is unset.
const DefaultArtifactsDir = ".datachat"

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes have no effect
	// except the explicit opt-in in ObserveEnabled.
	observeEnabled = os.Getenv("CHAT_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to enable mid-run via env override.
	if v, ok := os.LookupEnv("CHAT_OBSERVE_JSON"); ok {
		return v == "1"
	}
	return observeEnabled
}

// ArtifactsDir is where events.jsonl is written.
func ArtifactsDir() string {
	if d := os.Getenv("CHAT_ARTIFACTS_DIR"); d != "" {
		return d
	}
	return DefaultArtifactsDir
}
