package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultHTTPClientTimeout is the timeout for HTTP client requests
	DefaultHTTPClientTimeout = 60 * time.Second
)

// Limit constants
const (
	// SummaryOutputLimit is how many characters of stdout/stderr the final
	// summary keeps per command
	SummaryOutputLimit = 200
	// DefaultHistoryListLimit is the default number of runs the history
	// command displays
	DefaultHistoryListLimit = 20
	// DefaultTranscriptTailLines is how many transcript lines the log
	// endpoint returns by default
	DefaultTranscriptTailLines = 1000
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
