package scheduler

import (
	"sync"

	"github.com/gradsync/gradsync/model/stage"
)

// Registry owns one Queue per stage.Type, matching the fixed ten-entry
// active-set the topology can ever spawn (spec §4.4). Stages a given
// topology never activates simply have their queue sit empty and unread.
type Registry struct {
	mu     sync.Mutex
	queues map[stage.Type]*Queue
}

// NewRegistry creates an empty Registry. Queues are created lazily on first
// Get so tests can construct a Registry without enumerating every stage.
func NewRegistry() *Registry {
	return &Registry{queues: make(map[stage.Type]*Queue)}
}

// Get returns the Queue for st, creating it with DefaultAdmission on first
// use.
func (r *Registry) Get(st stage.Type) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[st]
	if !ok {
		q = NewQueue(nil)
		r.queues[st] = q
	}
	return q
}

// CloseAll closes every queue created so far, used during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.queues {
		q.Close()
	}
}
