package ai

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/goalrun/internal/domain"
)

// TestParseDecision tests turning raw model replies into decisions
func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    domain.Decision
		wantErr bool
	}{
		{
			name: "commands with goal open",
			body: `{"commands": ["ls -la", "pwd"], "goal_done": false}`,
			want: domain.Decision{Commands: []string{"ls -la", "pwd"}, GoalDone: false},
		},
		{
			name: "goal done without commands",
			body: `{"commands": [], "goal_done": true}`,
			want: domain.Decision{GoalDone: true},
		},
		{
			name: "done accepted as completion alias",
			body: `{"commands": [], "done": true}`,
			want: domain.Decision{GoalDone: true},
		},
		{
			name: "null commands",
			body: `{"commands": null, "goal_done": true}`,
			want: domain.Decision{GoalDone: true},
		},
		{
			name: "bare string stays one command",
			body: `{"commands": "ls -la /tmp", "goal_done": false}`,
			want: domain.Decision{Commands: []string{"ls -la /tmp"}},
		},
		{
			name: "string completion flag",
			body: `{"commands": [], "goal_done": "true"}`,
			want: domain.Decision{GoalDone: true},
		},
		{
			name: "blank entries dropped",
			body: `{"commands": ["ls", "", "   ", "pwd"]}`,
			want: domain.Decision{Commands: []string{"ls", "pwd"}},
		},
		{
			name: "numeric entries coerced",
			body: `{"commands": [42], "goal_done": false}`,
			want: domain.Decision{Commands: []string{"42"}},
		},
		{
			name: "fenced reply",
			body: "```json\n{\"commands\": [\"whoami\"], \"goal_done\": false}\n```",
			want: domain.Decision{Commands: []string{"whoami"}},
		},
		{
			name:    "missing commands key",
			body:    `{"goal_done": true}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			body:    `["ls", "pwd"]`,
			wantErr: true,
		},
		{
			name:    "no json at all",
			body:    "try running ls",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDecision(tt.body)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDecision error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("decision mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestParseDecisionRepeatable tests that reparsing a reply changes nothing
func TestParseDecisionRepeatable(t *testing.T) {
	body := `{"commands": ["df -h", "uptime"], "goal_done": false}`

	first, err := parseDecision(body)
	if err != nil {
		t.Fatalf("parseDecision error: %v", err)
	}
	second, err := parseDecision(body)
	if err != nil {
		t.Fatalf("parseDecision error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("decisions diverged (-first +second):\n%s", diff)
	}
}

// TestBuildUserMessage tests the prompt layout sent with each decision request
func TestBuildUserMessage(t *testing.T) {
	window := []domain.HistoryEntry{
		{
			Command: "ls",
			Result:  domain.ExecutionResult{Stdout: "a.txt\n", ExitCode: 0, Succeeded: true},
		},
	}

	got, err := buildUserMessage("list files", window)
	if err != nil {
		t.Fatalf("buildUserMessage error: %v", err)
	}

	want := "Goal: list files\nHistory:\n" +
		"[\n" +
		"  {\n" +
		"    \"command\": \"ls\",\n" +
		"    \"result\": {\n" +
		"      \"stdout\": \"a.txt\\n\",\n" +
		"      \"stderr\": \"\",\n" +
		"      \"returncode\": 0,\n" +
		"      \"success\": true\n" +
		"    }\n" +
		"  }\n" +
		"]"
	if got != want {
		t.Fatalf("message mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

// TestBuildUserMessageEmptyWindow tests the first step where no history exists
func TestBuildUserMessageEmptyWindow(t *testing.T) {
	got, err := buildUserMessage("list files", nil)
	if err != nil {
		t.Fatalf("buildUserMessage error: %v", err)
	}

	if got != "Goal: list files\nHistory:\n[]" {
		t.Fatalf("message mismatch: %q", got)
	}
}
