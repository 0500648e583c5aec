package domain

import (
	"path/filepath"
	"time"
)

// Config mirrors config.yaml plus the environment overrides applied at load
// time. It is read once at startup and never mutated afterwards; every
// collaborator holds the same value.
type Config struct {
	MaxSteps          int      `yaml:"max_steps"`
	TimeoutSeconds    int      `yaml:"timeout"`
	HistorySize       int      `yaml:"history_size"`
	Model             string   `yaml:"model"`
	DangerousCommands []string `yaml:"dangerous_commands"`
	LogLevel          string   `yaml:"log_level"`
	APIBase           string   `yaml:"api_base"`
	SystemPrompt      string   `yaml:"system_prompt"`
	LogDir            string   `yaml:"log_dir"`
	ListenAddr        string   `yaml:"listen_addr"`
	HistoryDB         string   `yaml:"history_db"`
}

// DefaultSystemPrompt is sent when the config does not override it. The model
// must answer with a single JSON object so the decision parser has a stable
// contract to hold it to.
const DefaultSystemPrompt = "You are a Linux expert assistant. Generate commands to achieve the user's goal. " +
	"Respond ONLY with JSON: {'commands': [], 'goal_done': bool}. " +
	"'goal_done' must be true when the goal is achieved."

// DefaultDangerousCommands is the denylist applied when the config omits one.
func DefaultDangerousCommands() []string {
	return []string{"rm", "mkfs", "dd", "fork", ">", "sudo"}
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		MaxSteps:          10,
		TimeoutSeconds:    30,
		HistorySize:       5,
		Model:             "gpt-4-1106-preview",
		DangerousCommands: DefaultDangerousCommands(),
		LogLevel:          "info",
		APIBase:           "https://api.openai.com/v1",
		LogDir:            "logs",
		ListenAddr:        ":8080",
	}
}

// Timeout returns the per-command execution deadline.
func (c Config) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// EffectiveSystemPrompt returns the configured system instruction, falling
// back to the built-in one.
func (c Config) EffectiveSystemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return DefaultSystemPrompt
}

// HistoryDBPath resolves the audit database location. Empty HistoryDB means
// the default path under the log directory; "off" disables persistence.
func (c Config) HistoryDBPath() string {
	switch c.HistoryDB {
	case "":
		return filepath.Join(c.LogDir, "history.db")
	case "off":
		return ""
	default:
		return c.HistoryDB
	}
}

// AgentLogPath is the rotating run log inside the log directory.
func (c Config) AgentLogPath() string {
	return filepath.Join(c.LogDir, "agent.log")
}

// TranscriptLogPath is the model request/response transcript inside the log
// directory.
func (c Config) TranscriptLogPath() string {
	return filepath.Join(c.LogDir, "llm.log")
}
