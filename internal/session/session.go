// Package session accumulates LLM usage across all calls made during a
// run of the service, so the total cost of a meeting pipeline can be
// reported regardless of which providers served it.
package session

import (
	"sync"

	"github.com/avoronin/meetscribe/internal/llm"
)

// Snapshot is a point-in-time copy of the accumulated totals.
type Snapshot struct {
	Calls               int     `json:"calls"`
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens"`
	Cost                float64 `json:"cost"`
}

// Totals aggregates usage and cost across LLM calls. Safe for
// concurrent use.
type Totals struct {
	mu      sync.Mutex
	current Snapshot
}

// NewTotals creates an empty accumulator.
func NewTotals() *Totals {
	return &Totals{}
}

// Record reads the strategy's last-call usage snapshot and adds it to
// the running totals. Call it once after each completed LLM operation;
// the strategy overwrites its snapshot on every call, so recording
// late loses the earlier calls.
func (t *Totals) Record(s *llm.Strategy) {
	u := s.LastUsage()
	cost := s.Cost()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.Calls++
	t.current.InputTokens += u.InputTokens
	t.current.OutputTokens += u.OutputTokens
	t.current.CacheCreationTokens += u.CacheCreationTokens
	t.current.CacheReadTokens += u.CacheReadTokens
	t.current.Cost += cost
}

// Snapshot returns a copy of the current totals.
func (t *Totals) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Reset clears the totals back to zero.
func (t *Totals) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Snapshot{}
}
