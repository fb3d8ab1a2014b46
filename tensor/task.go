package tensor

import (
	"time"

	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/rendezvous"
)

// ReadyEvent is an opaque readiness handle polled by stage loops before
// first use of a Task's device buffers. Behavior when it never fires is
// unspecified by design (spec §9, Open Question): the core will block the
// owning stage loop indefinitely. Framework-supplied readiness is a trust
// boundary; a watchdog belongs in the binding layer, not here.
type ReadyEvent interface {
	// Ready reports whether the underlying device operation has completed.
	// Stage loops poll this; it must not block.
	Ready() bool
}

// ReadyNow is a ReadyEvent that is always ready, used by callers that have
// no device-side asynchrony to wait on.
type ReadyNow struct{}

// Ready always returns true.
func (ReadyNow) Ready() bool { return true }

// Status is the outcome reported to a Callback.
type Status struct {
	Err error
}

// OK is the zero-value successful Status.
var OK = Status{}

// Callback is invoked exactly once per Enqueue, on success or on synchronous
// rejection (spec §7 policy). Asynchronous fatal errors never reach it; they
// abort the process instead.
type Callback func(Status)

// Task is the ephemeral, one-per-partition-per-enqueue work item that
// travels through the pipeline (spec §3 "Task (partition entry)").
type Task struct {
	// Context is a back-reference to the parent registration record.
	Context *Context

	// TensorName is the partition's own name, derived from the parent
	// tensor name suffixed with "_i" the way the reference partitioner
	// names its children.
	TensorName string

	// Key is the globally unique key assigned from the parent's
	// KeyList[i]; it is the empty value (0) until EnqueueTensor assigns it.
	Key int64

	// Offset and Len describe this partition's byte window within the
	// staging buffer; Len <= PartitionBound.
	Offset int
	Len    int

	// Tensor and Output are the opaque device buffers; they may coincide
	// for in-place reductions.
	Tensor []byte
	Output []byte

	// Device, Priority and Version are routing/scheduling hints copied
	// verbatim from the parent.
	Device   int
	Priority int
	Version  int

	// ReadyEvent is polled by stage loops before first use.
	ReadyEvent ReadyEvent

	// QueueList is the remaining itinerary: an ordered sequence of stage
	// identifiers. Stages pop the head and dispatch to the next queue.
	QueueList []stage.Type

	// Callback is the user completion callback, shared by every sibling
	// partition, invoked exactly once per parent Enqueue.
	Callback Callback

	// CounterPtr is the shared rendezvous group every sibling partition
	// arrives at on its last stage; the arrival that observes the group
	// complete invokes Callback.
	CounterPtr *rendezvous.Group

	// TotalPartNum equals len(Context.KeyList); identical across siblings.
	TotalPartNum int

	// CreatedAt is the partition's creation time, used for span duration
	// and queue-wait observability; it carries no correctness invariant.
	CreatedAt time.Time
}

// PopStage returns the task's current head stage and the remaining
// itinerary after it, without modifying the task, mirroring the "advance the task to the next
// stage" operation in spec §4.3. ok is false when the itinerary is already
// empty.
func (t *Task) PopStage() (head stage.Type, rest []stage.Type, ok bool) {
	if len(t.QueueList) == 0 {
		return 0, nil, false
	}
	return t.QueueList[0], t.QueueList[1:], true
}

// Done reports whether the task has traversed every stage in its itinerary.
func (t *Task) Done() bool { return len(t.QueueList) == 0 }
