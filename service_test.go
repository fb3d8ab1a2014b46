package gradsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/tensor"
	"github.com/gradsync/gradsync/topology"
)

func silenceFatal(t *testing.T) {
	t.Helper()
	prev := errs.FatalFunc
	errs.FatalFunc = func(args ...interface{}) {}
	t.Cleanup(func() { errs.FatalFunc = prev })
}

func newTestService(t *testing.T, flags topology.Flags, partitionBound int) *Service {
	t.Helper()
	s := New(WithTopology(&topology.Topology{
		Flags:          flags,
		Size:           1,
		LocalSize:      1,
		PartitionBound: partitionBound,
	}))
	assert.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// waitCallback blocks until cb fires, failing the test after timeout.
func waitCallback(t *testing.T, timeout time.Duration) (tensor.Callback, <-chan tensor.Status) {
	t.Helper()
	ch := make(chan tensor.Status, 1)
	return func(status tensor.Status) { ch <- status }, ch
}

// Scenario 1 (spec §8.1): non-distributed, single PCIe switch, signal-root,
// 10 MiB tensor with a 4 MiB partition bound: itinerary = [REDUCE], 3
// partitions of 4 MiB, 4 MiB, 2 MiB, callback fires once after all three.
func TestScenario_NonDistributedSignalRootThreePartitions(t *testing.T) {
	const mib = 1 << 20
	s := newTestService(t, topology.Flags{NCCLIsSignalRoot: true}, 4*mib)

	ctx := context.Background()
	tctx, err := s.RegisterTensor(ctx, "grad/big", 10*mib)
	assert.NoError(t, err)
	assert.Len(t, tctx.KeyList, 3)

	cb, done := waitCallback(t, time.Second)
	input := make([]byte, 10*mib)
	err = s.EnqueueTensor(EnqueueInput{
		Context:   tctx,
		Input:     input,
		Name:      "grad/big",
		Device:    0,
		Callback:  cb,
		QueueList: s.PushQueueList(0),
	})
	assert.NoError(t, err)

	select {
	case status := <-done:
		assert.NoError(t, status.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

// Scenario 5 (spec §8.5): input/output size mismatch fails InvariantViolation
// without enqueuing.
func TestScenario_InputOutputSizeMismatchIsInvariantViolation(t *testing.T) {
	silenceFatal(t)
	s := newTestService(t, topology.Flags{NCCLIsSignalRoot: true}, 1024)

	ctx := context.Background()
	tctx, err := s.RegisterTensor(ctx, "grad/mismatch", 16)
	assert.NoError(t, err)

	called := false
	err = s.EnqueueTensor(EnqueueInput{
		Context:   tctx,
		Input:     make([]byte, 16),
		Output:    make([]byte, 8),
		Name:      "grad/mismatch",
		Callback:  func(tensor.Status) { called = true },
		QueueList: s.PushQueueList(0),
	})
	assert.Error(t, err)
	assert.False(t, called, "callback must not fire on a synchronously rejected enqueue")
}

// Scenario 6 (spec §8.6): init with buff_len=9, partition_bound=4 asserts
// |key_list|=3; worker-0 issues three blocking pushes, all workers pass
// three barriers, initialized becomes true.
func TestScenario_InitSeedsParameterServerAndSetsInitialized(t *testing.T) {
	s := newTestService(t, topology.Flags{IsDistributed: true, IsRootDevice: true, NCCLIsSignalRoot: true}, 4)

	ctx := context.Background()
	tctx, err := s.RegisterTensor(ctx, "grad/seed", 9)
	assert.NoError(t, err)
	assert.Len(t, tctx.KeyList, 3)

	err = s.InitTensor(ctx, InitInput{Context: tctx, Name: "grad/seed"})
	assert.NoError(t, err)
	assert.True(t, tctx.Initialized())
	assert.True(t, s.IsTensorInitialized(ctx, "grad/seed", 9))
}

// Init idempotence (spec §8, universally quantified): a second init on an
// already-initialized context is a no-op.
func TestInitTensor_IdempotentOnSecondCall(t *testing.T) {
	s := newTestService(t, topology.Flags{NCCLIsSignalRoot: true}, 4)
	ctx := context.Background()
	tctx, err := s.RegisterTensor(ctx, "grad/once", 8)
	assert.NoError(t, err)

	assert.NoError(t, s.InitTensor(ctx, InitInput{Context: tctx, Name: "grad/once"}))
	firstBuff := tctx.CPUBuff

	assert.NoError(t, s.InitTensor(ctx, InitInput{Context: tctx, Name: "grad/once"}))
	assert.Same(t, &firstBuff[0], &tctx.CPUBuff[0])
}

// CPU short-circuit (spec §8, universally quantified; §9 open question):
// device == CPU_DEVICE_ID yields an empty itinerary and a synchronous OK
// callback.
func TestEnqueueTensor_CPUShortCircuitFiresSynchronously(t *testing.T) {
	s := newTestService(t, topology.Flags{NCCLIsSignalRoot: true}, 4)
	ctx := context.Background()
	tctx, err := s.RegisterTensor(ctx, "grad/cpu", 8)
	assert.NoError(t, err)

	var mu sync.Mutex
	called := false
	err = s.EnqueueTensor(EnqueueInput{
		Context:   tctx,
		Input:     make([]byte, 8),
		Name:      "grad/cpu",
		Device:    topology.CPUDeviceID,
		Callback:  func(status tensor.Status) { mu.Lock(); called = true; mu.Unlock(); assert.NoError(t, status.Err) },
		QueueList: s.PushQueueList(topology.CPUDeviceID),
	})
	assert.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, called, "CPU tensors must fire their callback synchronously within EnqueueTensor")
}

func TestService_RankAndSizeAccessors(t *testing.T) {
	s := New(WithTopology(&topology.Topology{Rank: 2, LocalRank: 0, Size: 4, LocalSize: 2}))
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 0, s.LocalRank())
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, 2, s.LocalSize())
}

func TestService_ProgressAndEventsTrackCompletion(t *testing.T) {
	s := newTestService(t, topology.Flags{NCCLIsSignalRoot: true}, 4)
	ctx := context.Background()
	tctx, err := s.RegisterTensor(ctx, "grad/observed", 8)
	assert.NoError(t, err)

	cb, done := waitCallback(t, time.Second)
	err = s.EnqueueTensor(EnqueueInput{
		Context:   tctx,
		Input:     make([]byte, 8),
		Name:      "grad/observed",
		Callback:  cb,
		QueueList: s.PushQueueList(0),
	})
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	snap := s.Progress()
	assert.Equal(t, 1, snap.TotalTasks)
	assert.Equal(t, 1, snap.CompletedTasks)
	assert.Equal(t, 0, snap.PendingTasks)

	msg, err := s.Events().Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "grad/observed", msg.T().Data)
}

func TestService_CheckInitializedBeforeInit(t *testing.T) {
	s := New(WithTopology(topology.DefaultConfig().ToTopology()))
	assert.Error(t, s.CheckInitialized())
	assert.NoError(t, s.Init(context.Background()))
	assert.NoError(t, s.CheckInitialized())
}
