package web

import "sync"

// runRegistry keeps every tracker for the server's lifetime, newest last.
// Runs are short-lived tool invocations, so there is no eviction.
type runRegistry struct {
	mu       sync.Mutex
	trackers map[string]*RunTracker
	order    []string
}

func newRunRegistry() *runRegistry {
	return &runRegistry{trackers: map[string]*RunTracker{}}
}

func (r *runRegistry) Add(t *RunTracker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackers[t.RunID()] = t
	r.order = append(r.order, t.RunID())
}

func (r *runRegistry) Get(id string) (*RunTracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[id]
	return t, ok
}

// Latest returns the most recently started tracker, or nil before any run.
func (r *runRegistry) Latest() *RunTracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil
	}
	return r.trackers[r.order[len(r.order)-1]]
}
