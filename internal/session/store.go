package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/petasbytes/datachat/memory"
)

// Store loads and saves a session state.
type Store interface {
	Load(ctx context.Context) (memory.State, error)
	Save(ctx context.Context, st memory.State) error
}

// ErrCorrupt marks a session that exists but cannot be decoded or fails validation.
var ErrCorrupt = errors.New("corrupt session")

// Error is a persistence failure on a specific store location.
type Error struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LoadOrEmpty loads the session from store. Any failure is logged and an
// empty state returned, so a damaged file never stops the chatbot.
func LoadOrEmpty(ctx context.Context, store Store, logger *slog.Logger) memory.State {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := store.Load(ctx)
	if err != nil {
		logger.Warn("could not load previous session; starting fresh",
			slog.String("component", "session"),
			slog.Bool("corrupt", errors.Is(err, ErrCorrupt)),
			slog.Any("err", err),
		)
		return memory.State{}
	}
	return st
}

// validated returns ErrCorrupt wrapped around the state's validation error.
func validated(st memory.State) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}
