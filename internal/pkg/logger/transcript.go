package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Transcript records every model request and raw response to its own file so
// conversations can be audited independently of the run log. A nil Transcript
// is a valid no-op.
type Transcript struct {
	mu   sync.Mutex
	path string
	out  *log.Logger
	file io.Closer
}

// NewTranscript opens the transcript file for appending.
func NewTranscript(path string) (*Transcript, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		path: path,
		out:  log.New(file, "", log.LstdFlags),
		file: file,
	}, nil
}

// Path names the transcript file, empty for a no-op transcript.
func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Request records the outgoing system and user messages.
func (t *Transcript) Request(model, system, user string) {
	t.write("request", model, []section{
		{title: "SYSTEM", body: system},
		{title: "USER", body: user},
	})
}

// Response records the raw body the model answered with.
func (t *Transcript) Response(model, raw string) {
	t.write("response", model, []section{{title: "RAW", body: raw}})
}

type section struct {
	title string
	body  string
}

func (t *Transcript) write(kind, model string, sections []section) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString("[LLM][")
	b.WriteString(kind)
	b.WriteString("]")
	if model != "" {
		b.WriteString("[")
		b.WriteString(model)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("--- ")
		b.WriteString(sec.title)
		b.WriteString(" ---\n")
		b.WriteString(sec.body)
		if !strings.HasSuffix(sec.body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====")
	t.out.Print(b.String())
}

// Close releases the transcript file.
func (t *Transcript) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	return t.file.Close()
}
