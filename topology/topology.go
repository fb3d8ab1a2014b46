// Package topology snapshots the cluster/role inputs the itinerary builder
// and active-stage-set computation are pure functions of. Role flags are
// captured once at init and treated as immutable configuration for the life
// of the process (spec §4.2/§9 — "Role flags are snapshotted at init").
package topology

// CPUDeviceID is the sentinel device id meaning "this tensor lives on the
// host, not an accelerator" — both itineraries are empty for it.
const CPUDeviceID = -1

// Flags is the immutable role-flag record the itinerary builder and the
// active-stage-set computation are pure functions of.
type Flags struct {
	// IsDistributed is true when the job spans more than one node and
	// therefore needs inter-node push/pull against the parameter server.
	IsDistributed bool

	// IsRootDevice is true for the device per node that owns inter-node
	// push/pull. Non-root devices coordinate with it instead.
	IsRootDevice bool

	// IsCrossPCIeSwitch is true when this node's devices span more than one
	// PCIe switch, requiring an extra PCIE_REDUCE stage.
	IsCrossPCIeSwitch bool

	// NCCLIsSignalRoot is true for the device per PCIe switch that owns
	// initiation of the intra-node collective.
	NCCLIsSignalRoot bool
}

// Topology is the full set of environment/topology inputs consumed (not
// defined) by the engine (spec §6).
type Topology struct {
	Flags Flags

	// Rank/LocalRank/Size/LocalSize are the integer accessors exposed by the
	// producer-facing surface.
	Rank      int
	LocalRank int
	Size      int
	LocalSize int

	// WorkerID identifies the worker process; only WorkerID==0 performs the
	// init-time blocking push that seeds the parameter server.
	WorkerID int

	// PartitionBound is the deployment-wide maximum byte length of a single
	// partition.
	PartitionBound int

	// SwitchCount is the number of PCIe switches this node's devices span;
	// only meaningful when Flags.IsCrossPCIeSwitch is true.
	SwitchCount int
}

// PCIeSwitchCount returns the number of per-switch staging buffers the init
// protocol should open. It is at least 1 even if SwitchCount was left at
// its zero value, since a single-switch node still needs one buffer.
func (t Topology) PCIeSwitchCount() int {
	if t.SwitchCount <= 0 {
		return 1
	}
	return t.SwitchCount
}

// IsCPU reports whether device is the CPU sentinel, in which case both
// itineraries are empty and Enqueue short-circuits.
func IsCPU(device int) bool { return device == CPUDeviceID }
