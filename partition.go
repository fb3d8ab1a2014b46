// Package gradsync is the producer-facing control plane: tensor
// partitioning, the enqueue and init protocols, and the accessors a
// framework binding drives directly (spec §6). See doc.go for the package
// overview and SPEC_FULL.md for the full component design.
package gradsync

import (
	"strconv"

	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/rendezvous"
	"github.com/gradsync/gradsync/tensor"
)

// partitionTensor splits parent into ceil(size/bound) child tasks, each
// sharing parent's fields by value except offset, len, tensor_name (which
// gets an "_i" suffix) and key (left unassigned; EnqueueTensor assigns it
// from context.KeyList) — grounded on operations.cc::PartitionTensor.
func partitionTensor(parent *tensor.Task, size int, bound int) []*tensor.Task {
	if size == 0 {
		return nil
	}

	var partitions []*tensor.Task
	accumulated := 0
	i := 0
	for accumulated < size {
		length := size - accumulated
		if length > bound {
			length = bound
		}

		child := &tensor.Task{
			Context:      parent.Context,
			TensorName:   suffixedName(parent.TensorName, i),
			Offset:       accumulated,
			Len:          length,
			Tensor:       parent.Tensor,
			Output:       parent.Output,
			Device:       parent.Device,
			Priority:     parent.Priority,
			Version:      parent.Version,
			ReadyEvent:   parent.ReadyEvent,
			QueueList:    parent.QueueList,
			Callback:     parent.Callback,
			CounterPtr:   parent.CounterPtr,
			TotalPartNum: parent.TotalPartNum,
			CreatedAt:    parent.CreatedAt,
		}
		accumulated += length
		i++
		partitions = append(partitions, child)
	}
	return partitions
}

func suffixedName(name string, i int) string {
	return name + "_" + strconv.Itoa(i)
}

// The partition bound is passed to partitionTensor explicitly by
// enqueue.go rather than pulled from a package-level topology singleton,
// keeping partitionTensor a pure function of its arguments.

// assertPartitionCount fails fatally (InvariantViolation) if the number of
// partitions produced does not match expected, mirroring operations.cc's
// BPS_CHECK_EQ on key_list.size() vs partitions.size().
func assertPartitionCount(op string, got, expected int) {
	if got != expected {
		errs.Invariant(op, "partition count mismatch: got %d partitions, context has %d keys", got, expected)
	}
}

// assertCounterReady fails fatally if a task is partitioned without a
// rendezvous counter already attached, mirroring operations.cc's
// BPS_CHECK(entry->counter_ptr).
func assertCounterReady(op string, counter *rendezvous.Group) {
	if counter == nil {
		errs.Invariant(op, "task has no counter_ptr attached before partitioning")
	}
}
