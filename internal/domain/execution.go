package domain

// ExecutionResult is the normal form every command attempt reduces to.
// Blocked commands, timeouts, and spawn failures are not errors; they are
// results with ExitCode -1 and the explanation in Stderr. Succeeded is true
// only when the command ran and exited zero.
type ExecutionResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"returncode"`
	Succeeded  bool   `json:"success"`
	DurationMS int64  `json:"-"`
}
