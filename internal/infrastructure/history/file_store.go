package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/ports"
)

// FileStore is the JSONL fallback recorder. It appends one line per finished
// run and keeps no in-flight state, so RunStarted and CommandExecuted are
// no-ops. All methods tolerate a nil receiver, which is how a fully disabled
// store behaves.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a recorder appending to the given JSONL file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type runRecord struct {
	RunID      string    `json:"run_id"`
	Goal       string    `json:"goal"`
	Status     string    `json:"status"`
	Steps      int       `json:"steps"`
	Reason     string    `json:"reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStarted implements ports.RunRecorder.
func (f *FileStore) RunStarted(context.Context, domain.RunReport) error {
	return nil
}

// CommandExecuted implements ports.RunRecorder.
func (f *FileStore) CommandExecuted(context.Context, string, int, domain.HistoryEntry) error {
	return nil
}

// RunFinished implements ports.RunRecorder.
func (f *FileStore) RunFinished(_ context.Context, report domain.RunReport) error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(runRecord{
		RunID:      report.RunID,
		Goal:       report.Goal,
		Status:     string(report.Status),
		Steps:      report.Steps,
		Reason:     report.Reason,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	})
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// RecentRuns implements ports.RunRecorder, returning the newest runs first.
func (f *FileStore) RecentRuns(_ context.Context, limit int) ([]domain.RunReport, error) {
	if f == nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryListLimit
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var reports []domain.RunReport
	for i := len(lines) - 1; i >= 0 && len(reports) < limit; i-- {
		if len(lines[i]) == 0 {
			continue
		}
		var rec runRecord
		if err := json.Unmarshal(lines[i], &rec); err != nil {
			continue
		}
		reports = append(reports, domain.RunReport{
			RunID:      rec.RunID,
			Goal:       rec.Goal,
			Status:     domain.RunStatus(rec.Status),
			Steps:      rec.Steps,
			Reason:     rec.Reason,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
		})
	}
	return reports, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

var _ ports.RunRecorder = (*FileStore)(nil)
