package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/ports"
)

// DoctorService runs environment diagnostics. Checks stay offline: nothing
// here talks to the model endpoint.
type DoctorService struct {
	ConfigProvider ports.ConfigProvider
	ConfigPath     string
}

// Run executes checks and returns a report.
func (s *DoctorService) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	checks = append(checks, configFileCheck(s.ConfigPath))

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config load", err.Error()))
		return domain.HealthReport{Checks: checks}, err
	}

	checks = append(checks,
		apiKeyCheck(),
		ok("Model", fmt.Sprintf("%s via %s", cfg.Model, cfg.APIBase)),
		shellCheck(),
		filterCheck(cfg.DangerousCommands),
		logDirCheck(cfg.LogDir),
		historyCheck(cfg.HistoryDBPath()),
	)

	return domain.HealthReport{Checks: checks}, nil
}

func configFileCheck(path string) domain.HealthCheck {
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return warn("Config file", fmt.Sprintf("%s not found, defaults apply", path))
	}
	return ok("Config file", path)
}

func apiKeyCheck() domain.HealthCheck {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fail("API key", "OPENAI_API_KEY missing")
	}
	return ok("API key", "OPENAI_API_KEY present")
}

func shellCheck() domain.HealthCheck {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	if _, err := exec.LookPath(shell); err != nil {
		return fail("Shell", fmt.Sprintf("%s not executable", shell))
	}
	return ok("Shell", shell)
}

func filterCheck(patterns []string) domain.HealthCheck {
	if len(patterns) == 0 {
		return warn("Safety filter", "denylist is empty, nothing will be blocked")
	}
	return ok("Safety filter", fmt.Sprintf("%d patterns", len(patterns)))
}

func logDirCheck(dir string) domain.HealthCheck {
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return warn("Log directory", fmt.Sprintf("cannot create %s: %v", dir, err))
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("probe"), domain.SecureFilePermissions); err != nil {
		return warn("Log directory", fmt.Sprintf("%s not writable: %v", dir, err))
	}
	_ = os.Remove(probe)
	return ok("Log directory", dir)
}

func historyCheck(dbPath string) domain.HealthCheck {
	if dbPath == "" {
		return warn("History database", "persistence disabled")
	}
	return ok("History database", dbPath)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
