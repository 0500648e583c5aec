package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doeshing/goalrun/internal/domain"
)

// parseDecision turns a raw model reply into a Decision. The commands key is
// required even when empty; goal_done and done are both honored as the
// completion flag. An empty command list is a valid decision, not an error.
func parseDecision(raw string) (domain.Decision, error) {
	candidate, ok := extractDecisionJSON(raw)
	if !ok {
		return domain.Decision{}, fmt.Errorf("no JSON object in reply")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return domain.Decision{}, fmt.Errorf("invalid JSON in reply: %w", err)
	}

	rawCommands, present := payload["commands"]
	if !present {
		return domain.Decision{}, fmt.Errorf("reply has no commands key")
	}

	return domain.Decision{
		Commands: coerceCommands(rawCommands),
		GoalDone: coerceBool(payload["goal_done"]) || coerceBool(payload["done"]),
	}, nil
}

// coerceCommands accepts the shapes models actually emit: a proper array, a
// single bare string, or elements that are not quite strings.
func coerceCommands(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	case []any:
		var out []string
		for _, item := range t {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64, bool, int, int64:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	default:
		return ""
	}
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}
