package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/memory"
)

func sampleState() memory.State {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return memory.State{
		ID: "5b0c1f0e-7a55-4e55-9d0a-3a2b1c0d9e8f",
		Messages: []memory.Message{
			{Role: provider.RoleUser, Text: "which SKU sold most?", Time: t0},
			{Role: provider.RoleAssistant, Text: "Bamboo fork set, 1,204 units.", Time: t0.Add(time.Second)},
			{Role: provider.RoleUser, Text: "and by revenue?"},
			{Role: provider.RoleAssistant, Text: "Travel cutlery kit, \"€18k\".\nSecond line."},
		},
		Summary: "- forks lead units\n- kits lead revenue",
		Folded:  2,
		Counters: memory.Counters{
			InputTokens:          1200,
			OutputTokens:         340,
			EstimatedTokensSaved: 5100,
			Summaries:            1,
		},
		UpdatedAt: t0.Add(time.Minute),
	}
}

// requireStateEqual compares states field by field, using time.Equal for timestamps.
func requireStateEqual(t *testing.T, want, got memory.State) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Summary, got.Summary)
	require.Equal(t, want.Folded, got.Folded)
	require.Equal(t, want.Counters, got.Counters)
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %v got %v", want.UpdatedAt, got.UpdatedAt)
	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		assert.Equal(t, want.Messages[i].Role, got.Messages[i].Role, "role %d", i)
		assert.Equal(t, want.Messages[i].Text, got.Messages[i].Text, "text %d", i)
		assert.True(t, want.Messages[i].Time.Equal(got.Messages[i].Time), "time %d: want %v got %v", i, want.Messages[i].Time, got.Messages[i].Time)
	}
}

// memStore is an in-memory Store used to exercise LoadOrEmpty.
type memStore struct {
	st  memory.State
	err error
}

func (m *memStore) Load(context.Context) (memory.State, error) { return m.st, m.err }
func (m *memStore) Save(_ context.Context, st memory.State) error {
	if m.err != nil {
		return m.err
	}
	m.st = st
	return nil
}

var errDisk = errors.New("disk on fire")
