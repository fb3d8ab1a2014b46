package gradsync

import (
	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/internal/clock"
	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/progress"
	"github.com/gradsync/gradsync/rendezvous"
	"github.com/gradsync/gradsync/tensor"
)

// EnqueueInput bundles EnqueueTensor's arguments (spec §4.5 and §6
// "enqueue_tensor"). Context must already be registered and initialized.
type EnqueueInput struct {
	Context    *tensor.Context
	Input      []byte
	Output     []byte
	ReadyEvent tensor.ReadyEvent
	Name       string
	Device     int
	Priority   int
	Version    int
	Callback   tensor.Callback
	QueueList  []stage.Type
}

// EnqueueTensor implements the enqueue protocol (spec §4.5): partitions
// the tensor, assigns each partition its context key, and appends every
// partition to its itinerary's head-stage queue. A CPU-device (empty
// itinerary) enqueue fires callback synchronously with OK and does not
// touch any queue (spec §9, "source silently drops enqueues with empty
// itineraries").
func (s *Service) EnqueueTensor(in EnqueueInput) error {
	if in.Input != nil && in.Output != nil && len(in.Input) != len(in.Output) {
		return errs.InvariantErrorf("EnqueueTensor", "%s: input size %d does not match output size %d", in.Name, len(in.Input), len(in.Output))
	}

	size := len(in.Input)
	if size == 0 {
		size = len(in.Output)
	}

	totalPartNum := in.Context.PartitionCount()
	counter := rendezvous.New(in.Name, totalPartNum)

	parent := &tensor.Task{
		Context:      in.Context,
		TensorName:   in.Name,
		Tensor:       in.Input,
		Output:       in.Output,
		ReadyEvent:   in.ReadyEvent,
		Device:       in.Device,
		Priority:     in.Priority,
		Version:      in.Version,
		Callback:     in.Callback,
		QueueList:    in.QueueList,
		CounterPtr:   counter,
		TotalPartNum: totalPartNum,
		CreatedAt:    clock.Now(),
	}
	assertCounterReady("EnqueueTensor", parent.CounterPtr)

	partitions := partitionTensor(parent, size, s.topology.PartitionBound)
	assertPartitionCount("EnqueueTensor", len(partitions), totalPartNum)

	if len(in.QueueList) == 0 {
		in.Callback(tensor.OK)
		return nil
	}

	s.progress.Update(progress.Delta{Total: totalPartNum, Pending: totalPartNum})

	accumulated := 0
	for i, p := range partitions {
		p.Key = in.Context.KeyList[i]
		accumulated += p.Len
		s.queues.Get(in.QueueList[0]).AddTask(p)
	}
	if accumulated != size {
		return errs.InvariantErrorf("EnqueueTensor", "%s: accumulated partition size %d does not match tensor size %d", in.Name, accumulated, size)
	}

	return nil
}
