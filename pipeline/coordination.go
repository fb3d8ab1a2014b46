package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// coordinationGroup tracks arrivals for one (category, key) coordination
// point and lets waiters block until the configured number of coordinators
// has signalled, mirroring the COORDINATE_PUSH contract in spec §4.4: "the
// root's PUSH stage waits for all coordinators of the same key before
// issuing the network operation."
type coordinationGroup struct {
	mu       sync.Mutex
	arrived  int
	expected int
	release  chan struct{}
}

func newCoordinationGroup(expected int) *coordinationGroup {
	return &coordinationGroup{expected: expected, release: make(chan struct{})}
}

func (g *coordinationGroup) signal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.arrived++
	if g.arrived >= g.expected {
		select {
		case <-g.release:
			// already closed by a previous signal past the threshold
		default:
			close(g.release)
		}
	}
}

func (g *coordinationGroup) wait(ctx context.Context) error {
	if g.expected <= 0 {
		return nil
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CoordinationRegistry coordinates non-signal-root and non-root devices
// with their corresponding root across the COORDINATE_REDUCE,
// COORDINATE_BROADCAST and COORDINATE_PUSH stages. expectedCoordinators is
// the number of non-root local devices the root waits for; it is derived
// from topology at construction and does not change for the life of the
// process (spec §9, "role flags are snapshotted at init").
type CoordinationRegistry struct {
	mu                    sync.Mutex
	groups                map[string]*coordinationGroup
	expectedCoordinators int
}

// NewCoordinationRegistry creates a registry where the root waits for
// expectedCoordinators signals per key before proceeding. A node topology
// with a single local device per root should pass 0: PUSH stages on such a
// node never block on coordination.
func NewCoordinationRegistry(expectedCoordinators int) *CoordinationRegistry {
	return &CoordinationRegistry{
		groups:                make(map[string]*coordinationGroup),
		expectedCoordinators: expectedCoordinators,
	}
}

func (r *CoordinationRegistry) groupFor(category string, key int64) *coordinationGroup {
	id := fmt.Sprintf("%s:%d", category, key)
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		g = newCoordinationGroup(r.expectedCoordinators)
		r.groups[id] = g
	}
	return g
}

// Signal records a non-root/non-signal-root device's arrival at category
// for key.
func (r *CoordinationRegistry) Signal(category string, key int64) {
	r.groupFor(category, key).signal()
}

// Wait blocks the root's stage loop until expectedCoordinators have
// signalled for category and key, or ctx is cancelled. It returns
// immediately if this registry was built with expectedCoordinators <= 0.
func (r *CoordinationRegistry) Wait(ctx context.Context, category string, key int64) error {
	return r.groupFor(category, key).wait(ctx)
}
