// Package capability declares the contracts the stage loops drive but do
// not implement: the intra-node collective, host/device memory movement,
// cross-PCIe-switch reduction, and the parameter-server client (spec §6 —
// "External services consumed"). The physical transports and collective
// algorithms are out of scope; only their contracts are specified here,
// plus a local, single-process default implementation of each so the
// pipeline is exercisable without real accelerators or a network fabric.
package capability

import "context"

// Collective is the intra-node collective capability: reduce and broadcast
// across local devices. Whether a task takes the direct or the
// coordinate-then-direct variant is decided by the itinerary from
// topology.Flags.NCCLIsSignalRoot, not by this interface (spec §4.4).
type Collective interface {
	Reduce(ctx context.Context, key int64, buf []byte) error
	Broadcast(ctx context.Context, key int64, buf []byte) error
}

// Copier moves bytes between an opaque device buffer and the host staging
// buffer window `[offset, offset+len)` (spec §4.4 COPY_D2H/COPY_H2D).
type Copier interface {
	DeviceToHost(ctx context.Context, device []byte, host []byte) error
	HostToDevice(ctx context.Context, host []byte, device []byte) error
}

// PcieReducer combines per-PCIe-switch staging buffers into the root one
// (spec §4.4 PCIE_REDUCE).
type PcieReducer interface {
	Reduce(ctx context.Context, buffers [][]byte, root int) error
}

// PushPullCmd identifies the parameter-server operation kind sent alongside
// a key, mirroring the reference client's "cmd" parameter.
type PushPullCmd int

// DefaultPushPull is the command used for ordinary (non-init) push/pull.
const DefaultPushPull PushPullCmd = 0

// InitPushPull is the command the init protocol's seeding push uses (spec
// §4.6 step 3, "DefaultPushPull(dtype)").
const InitPushPull PushPullCmd = 1

// ParameterServer is the parameter-server client contract (spec §6):
// push/pull of byte ranges keyed by integer, plus a worker-group barrier.
type ParameterServer interface {
	ZPush(ctx context.Context, keys []int64, vals [][]byte, cmd PushPullCmd) error
	ZPull(ctx context.Context, keys []int64, lens []int, cmd PushPullCmd) ([][]byte, error)
	Wait(ctx context.Context, keys []int64) error
	// EncodeDefaultKey folds auxiliary metadata into key the way a real
	// parameter-server client shards on (key, metadata) pairs. The init
	// protocol passes the partition's byte length; the PUSH and PULL stages
	// do not call it and address the server with the raw partition key.
	EncodeDefaultKey(key int64, aux int) int64
	Barrier(ctx context.Context) error
}
