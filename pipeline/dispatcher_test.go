package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gradsync/gradsync/capability"
	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/rendezvous"
	"github.com/gradsync/gradsync/scheduler"
	"github.com/gradsync/gradsync/tensor"
)

func testCaps() Capabilities {
	return Capabilities{
		Collective:      capability.LocalCollective{},
		Copier:          capability.LocalCopier{},
		PcieReducer:     capability.LocalPcieReducer{},
		ParameterServer: capability.NewLocalParameterServer(1),
	}
}

// onCompleteCollector builds a CompletionFunc that fires task.Callback when
// its shared counter observes the last arrival, the same contract the
// enqueue protocol relies on (spec §4.3).
func onCompleteCollector() CompletionFunc {
	return func(task *tensor.Task) {
		if task.CounterPtr.Arrive(false, nil) {
			task.Callback(tensor.OK)
		}
	}
}

func TestDispatcher_SingleStageReduceFiresCallbackOnce(t *testing.T) {
	queues := scheduler.NewRegistry()
	d := NewDispatcher(testCaps(), queues, NewCoordinationRegistry(0), onCompleteCollector())

	var calls int
	var mu sync.Mutex
	task := &tensor.Task{
		TensorName:   "grad/l1_0",
		Key:          1,
		Tensor:       []byte{1, 2, 3, 4},
		QueueList:    []stage.Type{stage.Reduce},
		CounterPtr:   rendezvous.New("grad/l1", 1),
		TotalPartNum: 1,
		Callback: func(status tensor.Status) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			assert.NoError(t, status.Err)
		},
	}

	queues.Get(stage.Reduce).AddTask(task)
	got, ok := queues.Get(stage.Reduce).GetTask()
	assert.True(t, ok)
	d.Dispatch(context.Background(), stage.Reduce, got)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestDispatcher_MultiPartitionCallbackFiresOnLastArrival(t *testing.T) {
	queues := scheduler.NewRegistry()
	d := NewDispatcher(testCaps(), queues, NewCoordinationRegistry(0), onCompleteCollector())

	counter := rendezvous.New("grad/l2", 3)
	var calls int32
	cb := func(status tensor.Status) {
		calls++
	}

	for i := 0; i < 3; i++ {
		task := &tensor.Task{
			TensorName:   "grad/l2",
			Key:          int64(i),
			Tensor:       []byte{byte(i)},
			QueueList:    []stage.Type{stage.Reduce},
			CounterPtr:   counter,
			TotalPartNum: 3,
			Callback:     cb,
		}
		d.Dispatch(context.Background(), stage.Reduce, task)
	}

	assert.Equal(t, int32(1), calls)
}

func TestDispatcher_CopyStagesMoveHostWindow(t *testing.T) {
	queues := scheduler.NewRegistry()
	d := NewDispatcher(testCaps(), queues, NewCoordinationRegistry(0), onCompleteCollector())

	ctx := &tensor.Context{Name: "grad/l3", CPUBuff: make([]byte, 8)}
	task := &tensor.Task{
		Context:      ctx,
		TensorName:   "grad/l3_0",
		Offset:       2,
		Len:          4,
		Tensor:       []byte{9, 9, 9, 9},
		QueueList:    []stage.Type{stage.CopyD2H},
		CounterPtr:   rendezvous.New("grad/l3", 1),
		TotalPartNum: 1,
		Callback:     func(tensor.Status) {},
	}

	d.Dispatch(context.Background(), stage.CopyD2H, task)
	assert.Equal(t, []byte{9, 9, 9, 9}, ctx.CPUBuff[2:6])
}

func TestDispatcher_PushWaitsForCoordinators(t *testing.T) {
	queues := scheduler.NewRegistry()
	coord := NewCoordinationRegistry(1)
	d := NewDispatcher(testCaps(), queues, coord, onCompleteCollector())

	ctx := &tensor.Context{Name: "grad/l4", CPUBuff: []byte{1, 2, 3, 4}}
	done := make(chan struct{})
	task := &tensor.Task{
		Context:      ctx,
		TensorName:   "grad/l4_0",
		Key:          7,
		Offset:       0,
		Len:          4,
		QueueList:    []stage.Type{stage.Push},
		CounterPtr:   rendezvous.New("grad/l4", 1),
		TotalPartNum: 1,
		Callback:     func(tensor.Status) { close(done) },
	}

	go d.Dispatch(context.Background(), stage.Push, task)

	select {
	case <-done:
		t.Fatal("push completed before its coordinator signalled")
	case <-time.After(20 * time.Millisecond):
	}

	coord.Signal("push", 7)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push never completed after coordinator signalled")
	}
}
