package gradsync

import (
	"context"
	"sync/atomic"

	"github.com/gradsync/gradsync/capability"
	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/internal/clock"
	"github.com/gradsync/gradsync/itinerary"
	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/pipeline"
	"github.com/gradsync/gradsync/progress"
	"github.com/gradsync/gradsync/registry"
	"github.com/gradsync/gradsync/scheduler"
	"github.com/gradsync/gradsync/service/event"
	"github.com/gradsync/gradsync/service/messaging/memory"
	"github.com/gradsync/gradsync/shm"
	"github.com/gradsync/gradsync/tensor"
	"github.com/gradsync/gradsync/topology"
	"github.com/gradsync/gradsync/tracing"
)

// lifecycleEvent is the payload published on the Service's event bus: one
// entry per tensor that finishes a push/pull cycle or completes init.
type lifecycleEvent = event.Event[string]

// Service is the control plane's producer-facing surface (spec §6): tensor
// registration and init, enqueue, and the rank/size/itinerary accessors a
// framework binding drives directly. It is the adapted replacement for the
// teacher's workflow-engine Service — same functional-options bootstrap and
// Init/Shutdown lifecycle, specialized to one fixed pipeline instead of an
// arbitrary DAG of actions.
type Service struct {
	topology *topology.Topology

	registry  *registry.Service
	queues    *scheduler.Registry
	caps      pipeline.Capabilities
	allocator shm.Allocator

	coordination *pipeline.CoordinationRegistry
	dispatcher   *pipeline.Dispatcher
	engine       *pipeline.Engine

	serviceName    string
	serviceVersion string
	progress       *progress.Progress
	events         *memory.Queue[lifecycleEvent]

	initialized atomic.Bool
}

// New constructs a Service from options, the same way the teacher's root
// package exposes New(options...Option). If neither WithTopology nor
// WithConfig supplies a topology, topology.DefaultConfig() is used.
func New(options ...Option) *Service {
	s := &Service{
		registry: registry.New(),
		queues:   scheduler.NewRegistry(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.applyDefaults()
	return s
}

func (s *Service) applyDefaults() {
	if s.topology == nil {
		s.topology = topology.DefaultConfig().ToTopology()
	}
	if s.serviceName == "" {
		s.serviceName = "gradsync"
	}
	if s.serviceVersion == "" {
		s.serviceVersion = "dev"
	}
	if s.caps.Collective == nil {
		s.caps.Collective = capability.LocalCollective{}
	}
	if s.caps.Copier == nil {
		s.caps.Copier = capability.LocalCopier{}
	}
	if s.caps.PcieReducer == nil {
		s.caps.PcieReducer = capability.LocalPcieReducer{}
	}
	if s.caps.ParameterServer == nil {
		s.caps.ParameterServer = capability.NewLocalParameterServer(1)
	}
	if s.allocator == nil {
		s.allocator = shm.New()
	}

	coordinators := 0
	if s.topology.LocalSize > 1 {
		coordinators = s.topology.LocalSize - 1
	}
	s.coordination = pipeline.NewCoordinationRegistry(coordinators)
	s.dispatcher = pipeline.NewDispatcher(s.caps, s.queues, s.coordination, s.completeTask)
	s.engine = pipeline.New(pipeline.ActiveStages(s.topology.Flags), s.queues, s.dispatcher)

	s.progress = &progress.Progress{
		ServiceName: s.serviceName,
		Label:       "gradient-sync",
		StartedAt:   clock.Now(),
	}
	s.events = memory.NewQueue[lifecycleEvent](memory.DefaultConfig())
}

// publishLifecycleEvent records a control-plane milestone (tensor
// initialized, push/pull cycle completed) on the Service's in-memory event
// bus, the same way the teacher's event package records step transitions.
// Publish errors are swallowed: the bus has a bounded buffer and observers
// are optional, so a full or cancelled queue must never block the pipeline.
func (s *Service) publishLifecycleEvent(eventType, name string) {
	evt := event.NewEvent(&event.Context{
		TaskID:    name,
		EventType: eventType,
		Service:   s.serviceName,
	}, name)
	_ = s.events.Publish(context.Background(), evt)
}

// Events returns the Service's lifecycle event bus, so a binding layer or a
// test can observe tensor-initialized and push/pull-completed milestones
// without polling Progress.
func (s *Service) Events() *memory.Queue[lifecycleEvent] { return s.events }

// Progress returns a snapshot of the aggregate partition counters across
// every tensor this Service has enqueued.
func (s *Service) Progress() progress.Progress { return s.progress.Snapshot() }

// completeTask is the pipeline's CompletionFunc: it arrives at the task's
// shared counter and fires the user callback exactly once, on the arrival
// that observes the post-increment value equal to total_partnum (spec
// §4.3).
func (s *Service) completeTask(task *tensor.Task) {
	s.progress.Update(progress.Delta{Completed: 1, Pending: -1})
	if task.CounterPtr.Arrive(false, nil) {
		// CounterPtr.ID is the parent tensor name; task.TensorName carries
		// the partition's "_i" suffix.
		s.publishLifecycleEvent("tensor_synced", task.CounterPtr.ID)
		task.Callback(tensor.OK)
	}
}

// Init is the idempotent bootstrap export (spec §6 "init()"): spawns stage
// workers for the active set this topology implies.
func (s *Service) Init(ctx context.Context) error {
	if s.initialized.Load() {
		return nil
	}
	if err := tracing.Init(s.serviceName, s.serviceVersion, ""); err != nil {
		return errs.CapabilityErrorf("Init.tracing", err)
	}
	s.engine.Start(ctx)
	s.initialized.Store(true)
	return nil
}

// Shutdown signals stage loops to stop admitting new tasks, joins them, and
// releases shared-memory regions the allocator owns for contexts where
// ReuseBuff is false (spec §6, "Persisted state ... released at shutdown
// unless reuse_buff").
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.initialized.Load() {
		return nil
	}
	s.engine.Shutdown()

	contexts, err := s.registry.List(ctx)
	if err == nil {
		for _, c := range contexts {
			if !c.ReuseBuff && len(c.KeyList) > 0 {
				s.allocator.Release(c.KeyList[0])
			}
		}
	}

	s.initialized.Store(false)
	return nil
}

// CheckInitialized returns nil iff Init has completed (spec §6
// "check_initialized()").
func (s *Service) CheckInitialized() error {
	if !s.initialized.Load() {
		return errs.Uninitializedf("CheckInitialized", "Init has not completed")
	}
	return nil
}

// Rank returns this process's global rank.
func (s *Service) Rank() int { return s.topology.Rank }

// LocalRank returns this process's rank within its node.
func (s *Service) LocalRank() int { return s.topology.LocalRank }

// Size returns the total number of processes in the job.
func (s *Service) Size() int { return s.topology.Size }

// LocalSize returns the number of processes on this node.
func (s *Service) LocalSize() int { return s.topology.LocalSize }

// IsTensorInitialized returns true iff a context exists under name with a
// matching buffer length and Initialized==true (spec §6).
func (s *Service) IsTensorInitialized(ctx context.Context, name string, size int) bool {
	return s.registry.IsTensorInitialized(ctx, name, size)
}

// GetContext returns the registration record for name (spec §6
// "get_context(name)").
func (s *Service) GetContext(ctx context.Context, name string) (*tensor.Context, error) {
	return s.registry.Get(ctx, name)
}

// RegisterTensor creates (or returns the existing) registration record for
// name, sized for buffLen bytes under this deployment's partition bound.
// It must be called once before InitTensor for a new tensor name.
func (s *Service) RegisterTensor(ctx context.Context, name string, buffLen int) (*tensor.Context, error) {
	return s.registry.Register(ctx, name, buffLen, s.topology.PartitionBound)
}

// PushQueueList returns the push itinerary for device under this
// deployment's role flags (spec §6 "push_queue_list(device)").
func (s *Service) PushQueueList(device int) []stage.Type {
	return itinerary.Push(s.topology.Flags, device)
}

// PullQueueList returns the pull itinerary for device under this
// deployment's role flags (spec §6 "pull_queue_list(device)").
func (s *Service) PullQueueList(device int) []stage.Type {
	return itinerary.Pull(s.topology.Flags, device)
}
