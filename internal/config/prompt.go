package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadSystemPrompt reads the system instructions file. The prompt must be
// non-empty after trimming whitespace.
func LoadSystemPrompt(path string) (string, error) {
	content, err := os.ReadFile(path) // #nosec G304 - path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &Error{Key: "CHAT_PROMPT_FILE", Err: fmt.Errorf("system prompt file not found: %s", path)}
		}
		return "", &Error{Key: "CHAT_PROMPT_FILE", Err: fmt.Errorf("read system prompt: %w", err)}
	}
	prompt := strings.TrimSpace(string(content))
	if prompt == "" {
		return "", &Error{Key: "CHAT_PROMPT_FILE", Err: fmt.Errorf("system prompt is empty: %s", path)}
	}
	return prompt, nil
}
