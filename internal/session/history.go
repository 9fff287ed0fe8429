package session

import (
	"sync"
	"time"

	"github.com/dusk-indust/srcmap/internal/patch"
)

// Record is one applied-or-resolved patch in the session's history. History
// lives for the interactive session only; it is never persisted.
type Record struct {
	ID      string        `json:"id"`
	File    string        `json:"file"`
	Span    patch.Span    `json:"span"`
	Unified string        `json:"unified,omitempty"`
	Outcome patch.Outcome `json:"outcome"`
	At      time.Time     `json:"at"`
}

// History is a thread-safe, append-only patch log.
type History struct {
	mu      sync.Mutex
	records []Record
}

// Add appends a record.
func (h *History) Add(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
}

// Records returns a copy of all records in append order.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}
