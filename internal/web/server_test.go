package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/pkg/logger"
	"github.com/doeshing/goalrun/internal/ports"
	"github.com/doeshing/goalrun/internal/web"
)

type scriptedDecider struct {
	decisions []domain.Decision
	repeat    domain.Decision
	calls     int
}

func (d *scriptedDecider) NextDecision(context.Context, string, []domain.HistoryEntry) (domain.Decision, error) {
	idx := d.calls
	d.calls++
	if idx < len(d.decisions) {
		return d.decisions[idx], nil
	}
	return d.repeat, nil
}

type instantExecutor struct{}

func (instantExecutor) Execute(_ context.Context, command string) domain.ExecutionResult {
	return domain.ExecutionResult{Stdout: command + "\n", ExitCode: 0, Succeeded: true}
}

// gatedExecutor parks every command until release is closed, so tests can
// act while a run is provably in flight.
type gatedExecutor struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedExecutor() *gatedExecutor {
	return &gatedExecutor{
		entered: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

func (e *gatedExecutor) Execute(_ context.Context, command string) domain.ExecutionResult {
	e.entered <- struct{}{}
	<-e.release
	return domain.ExecutionResult{Stdout: "ok\n", ExitCode: 0, Succeeded: true}
}

type stubRecorder struct {
	reports []domain.RunReport
}

func (stubRecorder) RunStarted(context.Context, domain.RunReport) error { return nil }
func (stubRecorder) CommandExecuted(context.Context, string, int, domain.HistoryEntry) error {
	return nil
}
func (stubRecorder) RunFinished(context.Context, domain.RunReport) error { return nil }
func (r stubRecorder) RecentRuns(context.Context, int) ([]domain.RunReport, error) {
	return r.reports, nil
}

type serverOptions struct {
	decider    ports.DecisionClient
	executor   ports.CommandExecutor
	recorder   ports.RunRecorder
	transcript *logger.Transcript
	onDecider  func(model, systemPrompt string)
}

func newTestServer(t *testing.T, opts serverOptions) *web.Server {
	t.Helper()
	if opts.executor == nil {
		opts.executor = instantExecutor{}
	}
	cfg := domain.DefaultConfig()
	cfg.HistorySize = 3
	server, err := web.NewServer(web.ServerConfig{
		Config:   cfg,
		Executor: opts.executor,
		Recorder: opts.recorder,
		NewDecider: func(model, systemPrompt string) ports.DecisionClient {
			if opts.onDecider != nil {
				opts.onDecider(model, systemPrompt)
			}
			return opts.decider
		},
		Transcript: opts.transcript,
		Logger:     logger.New(logger.Options{Level: "error", Console: io.Discard}),
	})
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, server *web.Server, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func statusFor(t *testing.T, server *web.Server, runID string) map[string]any {
	t.Helper()
	target := "/api/status"
	if runID != "" {
		target += "?run=" + runID
	}
	w, body := doJSON(t, server, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return body
}

func waitForRunEnd(t *testing.T, server *web.Server, runID string) map[string]any {
	t.Helper()
	var final map[string]any
	require.Eventually(t, func() bool {
		final = statusFor(t, server, runID)
		return final["is_running"] == false
	}, 5*time.Second, 10*time.Millisecond, "run %s never finished", runID)
	return final
}

func TestServerSettingsRoundTrip(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	w, settings := doJSON(t, server, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, web.DefaultSystemContent, settings["system_content"])
	assert.Equal(t, "", settings["goal"])
	assert.Equal(t, "gpt-4-1106-preview", settings["model"])

	w, resp := doJSON(t, server, http.MethodPost, "/api/settings", map[string]string{"goal": "build a report"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp["status"])

	_, settings = doJSON(t, server, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, "build a report", settings["goal"])
	// Untouched keys keep their values.
	assert.Equal(t, web.DefaultSystemContent, settings["system_content"])
}

func TestServerStartRunsToCompletion(t *testing.T) {
	decider := &scriptedDecider{decisions: []domain.Decision{
		{Commands: []string{"date > stamp.txt"}},
		{GoalDone: true},
	}}
	server := newTestServer(t, serverOptions{decider: decider})

	w, resp := doJSON(t, server, http.MethodPost, "/api/start", map[string]string{"goal": "stamp a file"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "success", resp["status"])
	runID, _ := resp["run_id"].(string)
	require.NotEmpty(t, runID)

	final := waitForRunEnd(t, server, runID)
	assert.Equal(t, runID, final["run_id"])
	assert.Equal(t, true, final["goal_reached"])
	assert.Equal(t, string(domain.StatusDone), final["status"])

	messages, ok := final["messages"].([]any)
	require.True(t, ok, "messages missing: %v", final)
	require.Len(t, messages, 2)

	command, ok := messages[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "command", command["type"])
	assert.Equal(t, "date > stamp.txt", command["command"])
	assert.Equal(t, true, command["success"])
	assert.Equal(t, "date > stamp.txt\n", command["stdout"])
	assert.Equal(t, "", command["stderr"])

	success, ok := messages[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", success["type"])
	assert.Equal(t, "Goal has been reached!", success["message"])
}

func TestServerStartPassesSettingsToDecider(t *testing.T) {
	var gotModel, gotPrompt string
	server := newTestServer(t, serverOptions{
		decider: &scriptedDecider{decisions: []domain.Decision{{GoalDone: true}}},
		onDecider: func(model, systemPrompt string) {
			gotModel = model
			gotPrompt = systemPrompt
		},
	})

	_, resp := doJSON(t, server, http.MethodPost, "/api/start", map[string]string{
		"goal":           "anything",
		"model":          "gpt-4o-mini",
		"system_content": "custom instructions",
	})
	require.Equal(t, "success", resp["status"])

	assert.Equal(t, "gpt-4o-mini", gotModel)
	assert.Equal(t, "custom instructions", gotPrompt)
}

func TestServerStartRequiresGoal(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	w, resp := doJSON(t, server, http.MethodPost, "/api/start", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", resp["status"])
}

func TestServerStatusIdle(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	body := statusFor(t, server, "")
	assert.Equal(t, false, body["is_running"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok, "messages should be a list, got %v", body)
	assert.Empty(t, messages)
}

func TestServerStatusUnknownRun(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	w, _ := doJSON(t, server, http.MethodGet, "/api/status?run=no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerStopCancelsRun(t *testing.T) {
	executor := newGatedExecutor()
	decider := &scriptedDecider{repeat: domain.Decision{Commands: []string{"spin"}}}
	server := newTestServer(t, serverOptions{decider: decider, executor: executor})

	_, resp := doJSON(t, server, http.MethodPost, "/api/start", map[string]string{"goal": "spin forever"})
	require.Equal(t, "success", resp["status"])
	runID, _ := resp["run_id"].(string)

	// Wait until the first command is provably in flight, stop, then let the
	// command finish.
	select {
	case <-executor.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("executor never ran")
	}
	w, stopResp := doJSON(t, server, http.MethodPost, "/api/stop?run="+runID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "success", stopResp["status"])
	close(executor.release)

	final := waitForRunEnd(t, server, runID)
	assert.Equal(t, string(domain.StatusStopped), final["status"])
	assert.Equal(t, false, final["goal_reached"])
}

func TestServerStopUnknownRun(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	w, _ := doJSON(t, server, http.MethodPost, "/api/stop", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerConcurrentRunsKeepSeparateTrackers(t *testing.T) {
	decider := &scriptedDecider{repeat: domain.Decision{GoalDone: true}}
	server := newTestServer(t, serverOptions{decider: decider})

	_, first := doJSON(t, server, http.MethodPost, "/api/start", map[string]string{"goal": "first"})
	_, second := doJSON(t, server, http.MethodPost, "/api/start", map[string]string{"goal": "second"})
	firstID, _ := first["run_id"].(string)
	secondID, _ := second["run_id"].(string)
	require.NotEmpty(t, firstID)
	require.NotEmpty(t, secondID)
	require.NotEqual(t, firstID, secondID)

	waitForRunEnd(t, server, firstID)
	waitForRunEnd(t, server, secondID)

	// Without an id the endpoint reports the newest run.
	latest := statusFor(t, server, "")
	assert.Equal(t, secondID, latest["run_id"])
}

func TestServerRunsEndpoint(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recorder := stubRecorder{reports: []domain.RunReport{
		{
			RunID:      "run-2",
			Goal:       "newest",
			Status:     domain.StatusDone,
			Steps:      2,
			StartedAt:  started.Add(time.Hour),
			FinishedAt: started.Add(time.Hour + time.Minute),
		},
		{
			RunID:     "run-1",
			Goal:      "oldest",
			Status:    domain.StatusFailed,
			Steps:     1,
			Reason:    "command failed: false",
			StartedAt: started,
		},
	}}
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}, recorder: recorder})

	w, body := doJSON(t, server, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	runs, ok := body["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 2)

	newest, ok := runs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-2", newest["run_id"])
	assert.Equal(t, "done", newest["status"])
	assert.Equal(t, "2024-05-01T13:00:00Z", newest["started_at"])

	oldest, ok := runs[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "command failed: false", oldest["reason"])
	_, hasFinished := oldest["finished_at"]
	assert.False(t, hasFinished, "zero finish time should be omitted")
}

func TestServerLLMLogsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.log")
	transcript, err := logger.NewTranscript(path)
	require.NoError(t, err)
	transcript.Request("gpt-4o", "system", "first prompt")
	transcript.Response("gpt-4o", `{"commands": []}`)

	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}, transcript: transcript})

	w, body := doJSON(t, server, http.MethodGet, "/api/llm_logs?limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs, ok := body["logs"].([]any)
	require.True(t, ok)
	require.Len(t, logs, 3)
	last, _ := logs[len(logs)-1].(string)
	assert.Equal(t, "=====", last)
}

func TestServerLLMLogsWithoutTranscript(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	w, body := doJSON(t, server, http.MethodGet, "/api/llm_logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs, ok := body["logs"].([]any)
	require.True(t, ok)
	assert.Empty(t, logs)
}

func TestServerHealthz(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	w, body := doJSON(t, server, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestServerIndexPage(t *testing.T) {
	server := newTestServer(t, serverOptions{decider: &scriptedDecider{}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "goalrun")
}
