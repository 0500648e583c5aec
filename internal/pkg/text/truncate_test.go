package text_test

import (
	"strings"
	"testing"

	"github.com/doeshing/goalrun/internal/pkg/text"
)

// TestTruncate tests output shortening for summaries
func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{
			name:  "short strings pass through",
			input: "hello",
			max:   10,
			want:  "hello",
		},
		{
			name:  "exact length passes through",
			input: "hello",
			max:   5,
			want:  "hello",
		},
		{
			name:  "long strings get an ellipsis",
			input: strings.Repeat("x", 12),
			max:   8,
			want:  strings.Repeat("x", 8) + "...",
		},
		{
			name:  "non-positive max disables truncation",
			input: "hello",
			max:   0,
			want:  "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.Truncate(tt.input, tt.max); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
