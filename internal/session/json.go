package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petasbytes/datachat/memory"
)

// formatVersion is bumped when the on-disk layout changes incompatibly.
const formatVersion = 1

type fileFormat struct {
	Version int `json:"version"`
	memory.State
}

// JSONStore keeps the session in a single indented JSON file.
type JSONStore struct {
	Path string
}

// NewJSONStore returns a store backed by path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{Path: path}
}

// Load reads the session file. A missing file yields an empty state and no error.
func (s *JSONStore) Load(_ context.Context) (memory.State, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return memory.State{}, nil
		}
		return memory.State{}, &Error{Op: "load", Path: s.Path, Err: err}
	}
	var f fileFormat
	if err := json.Unmarshal(b, &f); err != nil {
		return memory.State{}, &Error{Op: "load", Path: s.Path, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	if f.Version != formatVersion {
		return memory.State{}, &Error{Op: "load", Path: s.Path, Err: fmt.Errorf("%w: unsupported version %d", ErrCorrupt, f.Version)}
	}
	if err := validated(f.State); err != nil {
		return memory.State{}, &Error{Op: "load", Path: s.Path, Err: err}
	}
	return f.State, nil
}

// Save writes the session atomically: temp file in the same directory, then rename.
func (s *JSONStore) Save(_ context.Context, st memory.State) error {
	b, err := json.MarshalIndent(fileFormat{Version: formatVersion, State: st}, "", " ")
	if err != nil {
		return &Error{Op: "save", Path: s.Path, Err: err}
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &Error{Op: "save", Path: s.Path, Err: err}
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return &Error{Op: "save", Path: s.Path, Err: err}
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return &Error{Op: "save", Path: s.Path, Err: err}
	}
	return nil
}
