// Package rendezvous provides a generic "N parties, last arriver wins"
// primitive. It backs per-tensor completion accounting (spec §4.3 —
// counter_ptr reaching total_partnum fires the callback exactly once). The
// COORDINATE_* stages do not use it; they rendezvous through
// pipeline.CoordinationRegistry.
package rendezvous

import (
	"sync"
	"time"
)

// Group tracks how many of Expected parties have arrived and reports, on
// each arrival, whether this arrival was the one that completed the group.
// A mutex guards the counter; this gives the same sequentially-consistent
// "last arriver is uniquely identified" guarantee spec §5 asks of the
// atomic counter, with simpler reasoning about the accompanying side data
// (Outputs, DoneAt) that an atomic integer alone could not carry safely.
type Group struct {
	// ID identifies the group for logging/tracing; for completion
	// accounting this is the tensor name.
	ID string

	// Expected is the target arrival count; the group completes on the
	// arrival that makes Arrived reach Expected.
	Expected int

	mu      sync.Mutex
	arrived int
	failed  int
	outputs []interface{}
	doneAt  *time.Time
}

// New creates a Group expecting exactly expected arrivals.
func New(id string, expected int) *Group {
	return &Group{ID: id, Expected: expected}
}

// Arrive registers one arrival and returns true exactly once, on the
// arrival that observes the post-increment count equal to Expected. output,
// if non-nil, is retained for AggregateOutputs.
func (g *Group) Arrive(failed bool, output interface{}) (last bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if failed {
		g.failed++
	}
	if output != nil {
		g.outputs = append(g.outputs, output)
	}
	g.arrived++

	if g.arrived >= g.Expected && g.Expected > 0 && g.doneAt == nil {
		now := time.Now()
		g.doneAt = &now
		return true
	}
	return false
}

// Arrived returns the number of arrivals registered so far.
func (g *Group) Arrived() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arrived
}

// Failed reports whether any arrival was marked failed.
func (g *Group) Failed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed > 0
}

// Done reports whether the group has already completed.
func (g *Group) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doneAt != nil
}

// AggregateOutputs returns a snapshot of every non-nil output passed to
// Arrive, in arrival order.
func (g *Group) AggregateOutputs() []interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]interface{}(nil), g.outputs...)
}
