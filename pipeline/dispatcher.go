package pipeline

import (
	"context"
	"fmt"

	"github.com/gradsync/gradsync/capability"
	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/scheduler"
	"github.com/gradsync/gradsync/tensor"
	"github.com/gradsync/gradsync/tracing"
)

// Capabilities bundles the out-of-scope collaborators a Dispatcher drives;
// each stage kind uses exactly one of them (spec §4.4).
type Capabilities struct {
	Collective      capability.Collective
	Copier          capability.Copier
	PcieReducer     capability.PcieReducer
	ParameterServer capability.ParameterServer
}

// CompletionFunc is invoked once per task, when its queue_list becomes
// empty. It is responsible for arriving at task.CounterPtr and invoking
// task.Callback on the arrival that observes the post-increment value equal
// to total_partnum (spec §4.3), so the callback fires once per tensor.
type CompletionFunc func(task *tensor.Task)

// Dispatcher executes one stage's capability call for a task and advances
// it to its next queue, or finalizes it when its itinerary is exhausted.
// One Dispatcher is shared by every stage worker; the stage a given call
// operates on is passed explicitly rather than bound at construction,
// since a Task's itinerary can visit the same stage kind only once but
// different tasks are in different stages concurrently.
type Dispatcher struct {
	caps         Capabilities
	queues       *scheduler.Registry
	coordination *CoordinationRegistry
	onComplete   CompletionFunc
}

// NewDispatcher creates a Dispatcher wired to caps and queues. onComplete
// fires once per task whose itinerary has been fully traversed.
func NewDispatcher(caps Capabilities, queues *scheduler.Registry, coordination *CoordinationRegistry, onComplete CompletionFunc) *Dispatcher {
	return &Dispatcher{caps: caps, queues: queues, coordination: coordination, onComplete: onComplete}
}

// Dispatch runs st's capability call for task, then either appends task to
// its next stage's queue or, if the itinerary is now empty, finalizes it.
// Each call is wrapped in a span named by the stage, so a trace backend
// shows one span per stage a partition traverses.
func (d *Dispatcher) Dispatch(ctx context.Context, st stage.Type, task *tensor.Task) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("stage:%s", st), "INTERNAL")
	span.WithAttributes(map[string]string{
		"tensor.name": task.TensorName,
		"tensor.key":  fmt.Sprintf("%d", task.Key),
	})
	err := d.run(ctx, st, task)
	tracing.EndSpan(span, err)
	if err != nil {
		errs.Capability(fmt.Sprintf("stage:%s", st), err)
		return
	}

	_, rest, ok := task.PopStage()
	if !ok {
		errs.Invariant("Dispatch", "task for %q dispatched on stage %s with an already-empty itinerary", task.TensorName, st)
		return
	}
	task.QueueList = rest

	if task.Done() {
		d.onComplete(task)
		return
	}

	next, _, _ := task.PopStage()
	d.queues.Get(next).AddTask(task)
}

func (d *Dispatcher) run(ctx context.Context, st stage.Type, task *tensor.Task) error {
	switch st {
	case stage.Reduce:
		return d.caps.Collective.Reduce(ctx, task.Key, task.Tensor)

	case stage.Broadcast:
		return d.caps.Collective.Broadcast(ctx, task.Key, task.Tensor)

	case stage.CoordinateReduce:
		d.coordination.Signal("reduce", task.Key)
		return nil

	case stage.CoordinateBroadcast:
		d.coordination.Signal("broadcast", task.Key)
		return nil

	case stage.CopyD2H:
		return d.caps.Copier.DeviceToHost(ctx, task.Tensor, d.hostWindow(task))

	case stage.CopyH2D:
		return d.caps.Copier.HostToDevice(ctx, d.hostWindow(task), task.Output)

	case stage.PcieReduce:
		return d.caps.PcieReducer.Reduce(ctx, task.Context.PCIeCPUBuff, len(task.Context.PCIeCPUBuff)-1)

	case stage.Push:
		if err := d.coordination.Wait(ctx, "push", task.Key); err != nil {
			return err
		}
		return d.caps.ParameterServer.ZPush(ctx, []int64{task.Key}, [][]byte{d.hostWindow(task)}, capability.DefaultPushPull)

	case stage.Pull:
		vals, err := d.caps.ParameterServer.ZPull(ctx, []int64{task.Key}, []int{task.Len}, capability.DefaultPushPull)
		if err != nil {
			return err
		}
		copy(d.hostWindow(task), vals[0])
		return nil

	case stage.CoordinatePush:
		d.coordination.Signal("push", task.Key)
		return nil

	default:
		return fmt.Errorf("unknown stage %v", st)
	}
}

// hostWindow returns task's byte window within its context's host staging
// buffer: cpubuff[offset, offset+len) (spec §3, §5).
func (d *Dispatcher) hostWindow(task *tensor.Task) []byte {
	return task.Context.CPUBuff[task.Offset : task.Offset+task.Len]
}
