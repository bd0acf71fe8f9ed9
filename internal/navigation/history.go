// Package navigation records route transitions requested by the views.
package navigation

import "sync"

// History is a process-wide location, like the browser's.
type History struct {
	mu      sync.RWMutex
	entries []string
}

// NewHistory starts at the given route.
func NewHistory(initial string) *History {
	return &History{entries: []string{initial}}
}

// Push moves to route.
func (h *History) Push(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, route)
}

// Current returns the current route.
func (h *History) Current() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of every route visited, oldest first.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
