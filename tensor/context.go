// Package tensor holds the control plane's two core data types: the
// process-lifetime registration record (Context) and the ephemeral
// per-partition work item (Task). See spec §3.
package tensor

import "sync/atomic"

// Context is the registration record for one tensor name, created once per
// process lifetime. Once Initialized is true, KeyList, BuffLen and CPUBuff
// are immutable (spec §3 invariants).
type Context struct {
	// Name is the opaque string identifier this record is registered under.
	Name string

	// KeyList is the ordered sequence of globally unique integer keys, one
	// per partition. len(KeyList) == ceil(BuffLen / PartitionBound).
	KeyList []int64

	// BuffLen is the total byte length of the staging buffer.
	BuffLen int

	// CPUBuff is the host-side staging buffer, either caller-supplied or
	// allocated from the shared-memory allocator.
	CPUBuff []byte

	// PCIeCPUBuff holds the optional per-PCIe-switch staging buffers,
	// present only when the topology has multiple PCIe switches. CPUBuff is
	// always the last element of this slice when it is non-empty.
	PCIeCPUBuff [][]byte

	// ReuseBuff is true iff CPUBuff was supplied by the caller rather than
	// allocated by InitTensor.
	ReuseBuff bool

	// initialized becomes true after the init protocol completes, and is
	// monotonic: it never reverts to false.
	initialized atomic.Bool
}

// Initialized reports whether the init protocol has completed for this
// context.
func (c *Context) Initialized() bool { return c.initialized.Load() }

// MarkInitialized sets Initialized to true. It is idempotent.
func (c *Context) MarkInitialized() { c.initialized.Store(true) }

// PartitionCount returns len(KeyList), the number of partitions this context
// was registered with.
func (c *Context) PartitionCount() int { return len(c.KeyList) }
