package ai

import (
	"encoding/json"
	"fmt"

	"github.com/doeshing/goalrun/internal/domain"
)

// buildUserMessage renders the goal and the recent history window into the
// user message. The window is serialized as indented JSON so the model reads
// back exactly the entry shape it caused.
func buildUserMessage(goal string, window []domain.HistoryEntry) (string, error) {
	if window == nil {
		window = []domain.HistoryEntry{}
	}
	serialized, err := json.MarshalIndent(window, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize history: %w", err)
	}
	return fmt.Sprintf("Goal: %s\nHistory:\n%s", goal, serialized), nil
}
