package web

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/doeshing/goalrun/assets"
	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/pkg/logger"
	"github.com/doeshing/goalrun/internal/ports"
	"github.com/doeshing/goalrun/internal/services"
)

// DefaultSystemContent is the system instruction preloaded into the web
// settings. It is broader than the CLI default: the front-end targets a
// sandboxed container where the agent may build whatever the goal needs.
const DefaultSystemContent = "You are a self driven AI agent. You are integrated directly into a Linux container " +
	"with root rights. You can create scripts , write code , create interfaces etc. Your primary tool is linux " +
	"command line. Generate commands to achieve a given goal. Keep commands short and expect a linux cli response. " +
	"Respond ONLY with JSON: {'commands': [], 'goal_done': bool}. Only mark goal_done: true, when you think you " +
	"have reached the goal."

// Settings is the shared request template runs start from.
type Settings struct {
	SystemContent string `json:"system_content"`
	Goal          string `json:"goal"`
	Model         string `json:"model"`
}

type settingsPatch struct {
	SystemContent *string `json:"system_content"`
	Goal          *string `json:"goal"`
	Model         *string `json:"model"`
}

// ServerConfig describes the server's dependencies.
type ServerConfig struct {
	Addr     string
	Config   domain.Config
	Executor ports.CommandExecutor
	Recorder ports.RunRecorder
	// NewDecider builds a decision client for one run, honoring the
	// model and system prompt from the settings in force at start time.
	NewDecider func(model, systemPrompt string) ports.DecisionClient
	Transcript *logger.Transcript
	Logger     ports.Logger
}

// Server hosts the control page and the run API.
type Server struct {
	addr       string
	cfg        domain.Config
	executor   ports.CommandExecutor
	recorder   ports.RunRecorder
	newDecider func(model, systemPrompt string) ports.DecisionClient
	transcript *logger.Transcript
	log        ports.Logger
	router     *gin.Engine
	registry   *runRegistry

	settingsMu sync.Mutex
	settings   Settings
}

// NewServer builds the web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Executor == nil || cfg.NewDecider == nil || cfg.Logger == nil {
		return nil, errors.New("web server requires executor, decider factory and logger")
	}
	addr := cfg.Addr
	if addr == "" {
		addr = cfg.Config.ListenAddr
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		addr:       addr,
		cfg:        cfg.Config,
		executor:   cfg.Executor,
		recorder:   cfg.Recorder,
		newDecider: cfg.NewDecider,
		transcript: cfg.Transcript,
		log:        cfg.Logger,
		registry:   newRunRegistry(),
		settings: Settings{
			SystemContent: DefaultSystemContent,
			Model:         cfg.Config.Model,
		},
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	router.GET("/", s.handleIndex)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/settings", s.handleGetSettings)
	api.POST("/settings", s.handleUpdateSettings)
	api.POST("/start", s.handleStart)
	api.GET("/status", s.handleStatus)
	api.POST("/stop", s.handleStop)
	api.GET("/runs", s.handleRuns)
	api.GET("/llm_logs", s.handleLLMLogs)

	s.router = router
	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.Info("web server listening", map[string]interface{}{"addr": s.addr})

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", assets.IndexHTML)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	s.settingsMu.Lock()
	settings := s.settings
	s.settingsMu.Unlock()
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var patch settingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	s.applyPatch(patch)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleStart(c *gin.Context) {
	var patch settingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	settings := s.applyPatch(patch)
	if strings.TrimSpace(settings.Goal) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "goal is empty"})
		return
	}

	id := s.startRun(settings)
	c.JSON(http.StatusOK, gin.H{"status": "success", "run_id": id})
}

func (s *Server) handleStatus(c *gin.Context) {
	if id := c.Query("run"); id != "" {
		tracker, ok := s.registry.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "run not found"})
			return
		}
		c.JSON(http.StatusOK, tracker.Snapshot())
		return
	}
	if tracker := s.registry.Latest(); tracker != nil {
		c.JSON(http.StatusOK, tracker.Snapshot())
		return
	}
	c.JSON(http.StatusOK, StatusView{Messages: []Message{}})
}

func (s *Server) handleStop(c *gin.Context) {
	id := c.Query("run")
	if id == "" {
		var body struct {
			RunID string `json:"run_id"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			id = body.RunID
		}
	}

	var tracker *RunTracker
	if id != "" {
		t, ok := s.registry.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "run not found"})
			return
		}
		tracker = t
	} else if tracker = s.registry.Latest(); tracker == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "run not found"})
		return
	}

	tracker.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type runSummary struct {
	RunID      string `json:"run_id"`
	Goal       string `json:"goal"`
	Status     string `json:"status"`
	Steps      int    `json:"steps"`
	Reason     string `json:"reason,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.recorder == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []runSummary{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(domain.DefaultHistoryListLimit)))
	reports, err := s.recorder.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summaries := make([]runSummary, 0, len(reports))
	for _, report := range reports {
		summary := runSummary{
			RunID:     report.RunID,
			Goal:      report.Goal,
			Status:    string(report.Status),
			Steps:     report.Steps,
			Reason:    report.Reason,
			StartedAt: report.StartedAt.Format(domain.TimestampFormat),
		}
		if !report.FinishedAt.IsZero() {
			summary.FinishedAt = report.FinishedAt.Format(domain.TimestampFormat)
		}
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"runs": summaries})
}

func (s *Server) handleLLMLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(domain.DefaultTranscriptTailLines)))
	if limit <= 0 {
		limit = domain.DefaultTranscriptTailLines
	}
	path := s.transcript.Path()
	if path == "" {
		c.JSON(http.StatusOK, gin.H{"logs": []string{}})
		return
	}
	lines, err := readLastLines(path, limit)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"logs": []string{fmt.Sprintf("Error reading log file: %v", err)}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": lines})
}

func (s *Server) applyPatch(patch settingsPatch) Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if patch.SystemContent != nil {
		s.settings.SystemContent = *patch.SystemContent
	}
	if patch.Goal != nil {
		s.settings.Goal = *patch.Goal
	}
	if patch.Model != nil {
		s.settings.Model = *patch.Model
	}
	return s.settings
}

// startRun launches the agent in its own goroutine and registers a tracker
// for it. The run's context is independent of any HTTP request.
func (s *Server) startRun(settings Settings) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	tracker := NewRunTracker(id, settings.Goal, cancel)
	s.registry.Add(tracker)

	agent := &services.AgentService{
		Decider:  s.newDecider(settings.Model, settings.SystemContent),
		Executor: s.executor,
		Recorder: s.recorder,
		Observer: tracker,
		Logger:   s.log,
		Config:   s.cfg,
	}
	go func() {
		defer cancel()
		agent.Run(domain.RunRequest{Context: ctx, ID: id, Goal: settings.Goal})
	}()
	return id
}

// 4MB per line: transcripts embed whole prompts.
const maxLogLineSize = 4 * 1024 * 1024

func readLastLines(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLogLineSize)
	lines := make([]string, 0, limit)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > limit {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func requestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"ip":          c.ClientIP(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
