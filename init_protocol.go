package gradsync

import (
	"context"

	"github.com/gradsync/gradsync/capability"
	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/tensor"
)

// InitInput bundles InitTensor's arguments (spec §4.6, §6 "enqueue_tensor_init").
type InitInput struct {
	Context *tensor.Context
	Name    string
	DType   int
	CPUBuff []byte // optional; non-nil means the caller supplies the host buffer.
}

// InitTensor implements the init protocol (spec §4.6): acquires the host
// staging buffer, optionally seeds the parameter server from worker 0, and
// marks the context initialized. It is a no-op if the context is already
// initialized (spec §8, "init idempotence").
func (s *Service) InitTensor(ctx context.Context, in InitInput) error {
	if in.Context.Initialized() {
		return nil
	}

	keyList := in.Context.KeyList
	bound := s.topology.PartitionBound
	expected := (in.Context.BuffLen + bound - 1) / bound
	if len(keyList) == 0 || len(keyList) != expected {
		return errs.InvariantErrorf("InitTensor", "%s: key_list has %d entries, expected ceil(%d/%d)=%d", in.Name, len(keyList), in.Context.BuffLen, bound, expected)
	}

	if err := s.acquireHostBuffer(in.Context, in.CPUBuff); err != nil {
		return err
	}

	if s.topology.Flags.IsDistributed && s.topology.Flags.IsRootDevice {
		if err := s.seedParameterServer(ctx, in.Context, in.DType); err != nil {
			return err
		}
	}

	in.Context.MarkInitialized()
	if err := s.registry.Save(ctx, in.Context); err != nil {
		return err
	}
	s.publishLifecycleEvent("tensor_initialized", in.Name)
	return nil
}

// acquireHostBuffer implements spec §4.6 step 2: reuse the caller-supplied
// buffer if one was passed to InitTensor, or open shared memory (per-switch
// if cross-PCIe, otherwise a single region) keyed by the context's first
// partition key.
func (s *Service) acquireHostBuffer(c *tensor.Context, callerSupplied []byte) error {
	if callerSupplied != nil {
		c.CPUBuff = callerSupplied
		c.ReuseBuff = true
		return nil
	}

	key := c.KeyList[0]
	if s.topology.Flags.IsCrossPCIeSwitch {
		buffers, err := s.allocator.OpenPcieSharedMemory(key, c.BuffLen, s.topology.PCIeSwitchCount())
		if err != nil {
			return errs.CapabilityErrorf("OpenPcieSharedMemory", err)
		}
		c.PCIeCPUBuff = buffers
		c.CPUBuff = buffers[len(buffers)-1]
	} else {
		buf, err := s.allocator.OpenSharedMemory(key, c.BuffLen)
		if err != nil {
			return errs.CapabilityErrorf("OpenSharedMemory", err)
		}
		c.CPUBuff = buf
	}
	c.ReuseBuff = false
	return nil
}

// seedParameterServer implements spec §4.6 step 3: worker 0 issues one
// blocking push per partition, and every worker passes a barrier after
// each push so all workers observe the same initial state before any
// training-time pull.
func (s *Service) seedParameterServer(ctx context.Context, c *tensor.Context, dtype int) error {
	accumulated := 0
	for _, key := range c.KeyList {
		length := c.BuffLen - accumulated
		if length > s.topology.PartitionBound {
			length = s.topology.PartitionBound
		}

		if s.topology.WorkerID == 0 {
			encoded := s.caps.ParameterServer.EncodeDefaultKey(key, length)
			window := c.CPUBuff[accumulated : accumulated+length]
			if err := s.caps.ParameterServer.ZPush(ctx, []int64{encoded}, [][]byte{window}, capability.InitPushPull); err != nil {
				return errs.CapabilityErrorf("InitTensor.ZPush", err)
			}
			if err := s.caps.ParameterServer.Wait(ctx, []int64{encoded}); err != nil {
				return errs.CapabilityErrorf("InitTensor.Wait", err)
			}
		}

		if err := s.caps.ParameterServer.Barrier(ctx); err != nil {
			return errs.CapabilityErrorf("InitTensor.Barrier", err)
		}

		accumulated += length
	}
	if accumulated != c.BuffLen {
		return errs.InvariantErrorf("InitTensor", "accumulated %d bytes seeding, expected %d", accumulated, c.BuffLen)
	}
	return nil
}

// EnqueueTensorInit performs InitTensor and then invokes callback with OK,
// matching the producer-facing "enqueue_tensor_init" export (spec §4.6,
// §6).
func (s *Service) EnqueueTensorInit(ctx context.Context, in InitInput, callback tensor.Callback) error {
	if err := s.InitTensor(ctx, in); err != nil {
		return err
	}
	callback(tensor.OK)
	return nil
}
