package ai

import "fmt"

// DecisionError marks a decision that could not be obtained after the retry
// budget was spent. It fails the run, never the process.
type DecisionError struct {
	Err error
}

func (e *DecisionError) Error() string {
	if e.Err == nil {
		return "model decision failed"
	}
	return fmt.Sprintf("model decision failed: %v", e.Err)
}

func (e *DecisionError) Unwrap() error {
	return e.Err
}
