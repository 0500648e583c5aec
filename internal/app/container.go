package app

import (
	"context"
	"os"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/infrastructure/ai"
	"github.com/doeshing/goalrun/internal/infrastructure/config"
	"github.com/doeshing/goalrun/internal/infrastructure/executor"
	"github.com/doeshing/goalrun/internal/infrastructure/history"
	"github.com/doeshing/goalrun/internal/infrastructure/security"
	"github.com/doeshing/goalrun/internal/pkg/logger"
	"github.com/doeshing/goalrun/internal/ports"
	"github.com/doeshing/goalrun/internal/services"
)

// Options controls how the container is assembled.
type Options struct {
	// ConfigPath overrides the config file location; empty means the default
	// resolution (GOALRUN_CONFIG, then config.yaml).
	ConfigPath string
	// Verbose forces debug logging regardless of the configured level.
	Verbose bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	ConfigLoadErr error

	Logger       ports.Logger
	Transcript   *logger.Transcript
	Filter       *security.Filter
	Executor     ports.CommandExecutor
	HistoryStore *history.SQLiteStore

	// NewDecider builds a decision client; empty arguments fall back to the
	// configured model and system prompt. The web server uses it to honor
	// per-run overrides.
	NewDecider func(model, systemPrompt string) ports.DecisionClient

	AgentService  *services.AgentService
	DoctorService *services.DoctorService
}

// BuildContainer constructs the dependency graph. A config file that fails to
// load is not fatal here: defaults keep the wiring alive and ConfigLoadErr
// carries the failure for the commands that need a usable file.
func BuildContainer(ctx context.Context, opts Options) *Container {
	loader := config.NewFileLoader(opts.ConfigPath)
	cfg, loadErr := loader.Load(ctx)
	if loadErr != nil {
		cfg = domain.DefaultConfig()
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, FilePath: cfg.AgentLogPath()})
	if loadErr != nil {
		log.Warn("config load failed, using defaults", map[string]interface{}{
			"path":  loader.Path(),
			"error": loadErr.Error(),
		})
	}

	transcript, err := logger.NewTranscript(cfg.TranscriptLogPath())
	if err != nil {
		log.Warn("model transcript disabled", map[string]interface{}{
			"path":  cfg.TranscriptLogPath(),
			"error": err.Error(),
		})
		transcript = nil
	}

	filter := security.NewFilter(cfg.DangerousCommands)
	shellExecutor := executor.NewShellExecutor("", cfg.Timeout(), filter, log)
	historyStore := history.NewSQLiteStore(cfg.HistoryDBPath())

	newDecider := func(model, systemPrompt string) ports.DecisionClient {
		if model == "" {
			model = cfg.Model
		}
		if systemPrompt == "" {
			systemPrompt = cfg.EffectiveSystemPrompt()
		}
		return ai.NewClient(ai.ClientOptions{
			BaseURL:      cfg.APIBase,
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			Model:        model,
			SystemPrompt: systemPrompt,
			Logger:       log,
			Transcript:   transcript,
		})
	}

	agentService := &services.AgentService{
		Decider:  newDecider("", ""),
		Executor: shellExecutor,
		Recorder: historyStore,
		Logger:   log,
		Config:   cfg,
	}

	doctorService := &services.DoctorService{
		ConfigProvider: loader,
		ConfigPath:     loader.Path(),
	}

	return &Container{
		Config:        cfg,
		ConfigLoader:  loader,
		ConfigLoadErr: loadErr,
		Logger:        log,
		Transcript:    transcript,
		Filter:        filter,
		Executor:      shellExecutor,
		HistoryStore:  historyStore,
		NewDecider:    newDecider,
		AgentService:  agentService,
		DoctorService: doctorService,
	}
}

// ValidateConfig reports whether the loaded configuration can drive a run.
func (c *Container) ValidateConfig() error {
	if c.ConfigLoadErr != nil {
		return c.ConfigLoadErr
	}
	return config.Validate(c.Config)
}

// Close releases long-lived resources.
func (c *Container) Close() error {
	if c.Transcript != nil {
		_ = c.Transcript.Close()
	}
	if c.HistoryStore != nil {
		return c.HistoryStore.Close()
	}
	return nil
}
