package ai

import (
	"encoding/json"
	"strings"
)

const codeFence = "```"

// extractDecisionJSON pulls the JSON candidate out of a model reply. The
// chain is ordered and short-circuits on the first hit: a fenced code block,
// then the whole body, then the first balanced object anywhere in the text.
// Whatever the winning stage yields is final; a bad candidate is a parse
// error, not a reason to try the next stage.
func extractDecisionJSON(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := extractFromFence(raw); ok {
		return block, true
	}
	if json.Valid([]byte(raw)) {
		return raw, true
	}
	return extractJSONObject(raw)
}

// extractFromFence returns the contents of the first ``` block, dropping a
// leading language tag line such as "json".
func extractFromFence(raw string) (string, bool) {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(codeFence):]
	end := strings.Index(rest, codeFence)
	if end == -1 {
		return "", false
	}
	block := strings.TrimLeft(rest[:end], "\r\n")
	if idx := strings.Index(block, "\n"); idx != -1 {
		first := strings.TrimSpace(block[:idx])
		if first != "" && !strings.ContainsAny(first, "{[") {
			block = block[idx+1:]
		}
	}
	block = strings.TrimSpace(block)
	if block == "" {
		return "", false
	}
	if inner, ok := extractJSONObject(block); ok {
		return inner, true
	}
	return block, true
}

// extractJSONObject scans for the first balanced top-level object, tracking
// string literals and escapes so braces inside values do not confuse it.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(raw[start : i+1]), true
			}
		}
	}
	return "", false
}
