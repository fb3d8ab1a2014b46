package pipeline

import (
	"context"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/scheduler"
)

// pollInterval is how often an idle stage worker re-checks its queue.
// scheduler.Queue.GetTask is non-blocking by contract (spec §4.3), so the
// loop itself owns the choice of parking between polls rather than
// spinning — the same trade-off the teacher's queue consumer loop makes by
// blocking on a channel, just expressed as a poll because our queue cannot
// block on an admission predicate the way a channel receive can.
const pollInterval = 2 * time.Millisecond

// Engine owns the stage workers: one dedicated goroutine per active stage,
// draining its scheduler.Queue and handing eligible tasks to a Dispatcher
// (spec §4.4). It is the adapted replacement for the teacher's generic
// processor.Service worker pool, specialized to the ten fixed stage kinds.
type Engine struct {
	queues     *scheduler.Registry
	dispatcher *Dispatcher
	active     []stage.Type

	wg       sync.WaitGroup
	cancelFn context.CancelFunc
}

// New creates an Engine over the given active stage set, queues and
// dispatcher. active is normally the result of ActiveStages(flags).
func New(active []stage.Type, queues *scheduler.Registry, dispatcher *Dispatcher) *Engine {
	return &Engine{queues: queues, dispatcher: dispatcher, active: active}
}

// Start spawns one worker per active stage. Each worker runs until ctx is
// cancelled or Shutdown is called.
func (e *Engine) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelFn = cancel

	for _, st := range e.active {
		st := st
		queue := e.queues.Get(st)
		e.wg.Add(1)
		go e.runStage(runCtx, st, queue)
	}
}

func (e *Engine) runStage(ctx context.Context, st stage.Type, queue *scheduler.Queue) {
	defer e.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			task, ok := queue.GetTask()
			if !ok {
				break
			}
			klog.V(4).InfoS("dispatching task", "stage", st.String(), "tensor", task.TensorName, "key", task.Key)
			e.dispatcher.Dispatch(ctx, st, task)
		}
	}
}

// Shutdown signals every worker to stop admitting new tasks and waits for
// their current iteration to finish (spec §5: "stage loops stop admitting
// new tasks and exit after their current task completes"). In-flight tasks
// dropped by Close on each queue do not fire callbacks, matching spec §5.
func (e *Engine) Shutdown() {
	e.queues.CloseAll()
	if e.cancelFn != nil {
		e.cancelFn()
	}
	e.wg.Wait()
}
