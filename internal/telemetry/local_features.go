package telemetry

import (
	"context"

	"github.com/petasbytes/datachat/internal/metrics"
)

// EmitLocalFeatures records size features of the user's question without the
// question text itself.
func EmitLocalFeatures(ctx context.Context, question string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(question)
	Emit(EventLocalFeatures, map[string]any{
		"turn_id":          turnID,
		"features_version": "2",
		"question": map[string]any{
			"bytes":  f.Bytes,
			"runes":  f.Runes,
			"words":  f.Words,
			"lines":  f.Lines,
			"tokens": f.Tokens,
		},
	})
}
