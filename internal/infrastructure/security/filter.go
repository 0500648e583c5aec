package security

import (
	"strings"

	"github.com/doeshing/goalrun/internal/ports"
)

// Filter implements the SafetyFilter port with a static denylist. Matching is
// a case-insensitive substring scan: `rm` also hits `format`, and that
// over-blocking is the accepted tradeoff of a conservative gate.
type Filter struct {
	patterns []string
}

// NewFilter builds a filter from the configured denylist. Empty patterns are
// dropped; a nil or empty list yields a filter that blocks nothing.
func NewFilter(patterns []string) *Filter {
	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		cleaned = append(cleaned, strings.ToLower(pattern))
	}
	return &Filter{patterns: cleaned}
}

// IsDangerous implements ports.SafetyFilter.
func (f *Filter) IsDangerous(command string) bool {
	_, hit := f.Match(command)
	return hit
}

// Match reports the first denylist pattern the command contains.
func (f *Filter) Match(command string) (string, bool) {
	lowered := strings.ToLower(command)
	for _, pattern := range f.patterns {
		if strings.Contains(lowered, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// Patterns returns the active denylist, for diagnostics.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}

var _ ports.SafetyFilter = (*Filter)(nil)
