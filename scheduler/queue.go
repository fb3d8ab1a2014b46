// Package scheduler implements the per-stage scheduled queue: a
// multi-producer/single-consumer task buffer with ready-gating (spec §4.3).
// Unlike the teacher's channel-backed messaging.Queue, getTask must be able
// to skip tasks whose admission predicate does not yet hold without
// consuming them, which a Go channel cannot do — so the backing store here
// is a mutex-guarded slice instead of a channel.
package scheduler

import (
	"sync"

	"github.com/gradsync/gradsync/tensor"
)

// AdmissionFunc decides whether a task may be drained by getTask right now.
// The default is "ready_event has fired"; a deployment can layer credit or
// batching-threshold gating on top without changing Queue's contract (spec
// §4.3 calls the admission predicate "opaque to this spec").
type AdmissionFunc func(*tensor.Task) bool

// DefaultAdmission admits a task once its ReadyEvent fires. Tasks with a nil
// ReadyEvent are always admitted.
func DefaultAdmission(t *tensor.Task) bool {
	if t.ReadyEvent == nil {
		return true
	}
	return t.ReadyEvent.Ready()
}

// Queue is one stage's scheduled queue: thread-safe append from any
// producer, single-consumer extraction of the next eligible task. Ordering
// within a stage is not guaranteed across tensors (spec §5).
type Queue struct {
	mu        sync.Mutex
	tasks     []*tensor.Task
	admission AdmissionFunc
	closed    bool
}

// NewQueue creates a Queue using admission as its eligibility predicate. A
// nil admission defaults to DefaultAdmission.
func NewQueue(admission AdmissionFunc) *Queue {
	if admission == nil {
		admission = DefaultAdmission
	}
	return &Queue{admission: admission}
}

// AddTask appends task to the queue. Safe to call from any producer,
// including after the queue has been closed for draining — closed queues
// simply never hand the task back out (shutdown semantics, spec §5).
func (q *Queue) AddTask(task *tensor.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

// GetTask returns the next task whose admission predicate holds, removing
// it from the queue. It returns ok=false without blocking if no task is
// currently eligible — the stage loop decides whether to park or spin (spec
// §4.3). A closed queue never admits new tasks even if some are eligible.
func (q *Queue) GetTask() (task *tensor.Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, false
	}

	for i, t := range q.tasks {
		if q.admission(t) {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return t, true
		}
	}
	return nil, false
}

// Close stops the queue from admitting further tasks via GetTask. Tasks
// already queued but not yet eligible are dropped silently at shutdown, per
// spec §5: "In-flight tasks at shutdown do not fire callbacks."
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Len reports the current number of tasks held by the queue, eligible or
// not — useful for metrics/backpressure decisions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
