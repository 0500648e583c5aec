package domain

// HistoryEntry pairs an executed command with its normalized result. The
// JSON keys are part of the prompt contract: the window is serialized into
// the model's user message exactly as stored here.
type HistoryEntry struct {
	Command string          `json:"command"`
	Result  ExecutionResult `json:"result"`
}

// History is the append-only record of everything one run attempted, in
// order. It belongs to a single run and is not safe for concurrent writers;
// the loop is strictly sequential so none exist.
type History struct {
	entries []HistoryEntry
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds one entry at the end.
func (h *History) Append(entry HistoryEntry) {
	h.entries = append(h.entries, entry)
}

// Window returns the most recent n entries in append order. It returns the
// whole history when fewer than n entries exist and never nil.
func (h *History) Window(n int) []HistoryEntry {
	if n <= 0 {
		return []HistoryEntry{}
	}
	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	window := make([]HistoryEntry, len(h.entries)-start)
	copy(window, h.entries[start:])
	return window
}

// All returns every entry in append order.
func (h *History) All() []HistoryEntry {
	all := make([]HistoryEntry, len(h.entries))
	copy(all, h.entries)
	return all
}

// Len reports how many commands have been recorded.
func (h *History) Len() int {
	return len(h.entries)
}
