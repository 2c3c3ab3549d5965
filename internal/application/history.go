package application

import (
	"sync"

	"github.com/jobrunner/mensura/internal/ports/input"
)

const defaultHistorySize = 50

// History keeps the most recent conversion results in memory for the
// status endpoint. Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	results []input.ConvertResult
	max     int
}

// NewHistory creates a history holding up to max results; max <= 0 uses
// the default capacity.
func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistorySize
	}
	return &History{max: max}
}

// Add records one result, evicting the oldest when full.
func (h *History) Add(result input.ConvertResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
	if len(h.results) > h.max {
		h.results = h.results[len(h.results)-h.max:]
	}
}

// Recent returns the recorded results, newest first.
func (h *History) Recent() []input.ConvertResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]input.ConvertResult, len(h.results))
	for i := range h.results {
		out[i] = h.results[len(h.results)-1-i]
	}
	return out
}

// Len returns the number of recorded results.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.results)
}
