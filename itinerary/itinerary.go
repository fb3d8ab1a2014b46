// Package itinerary builds the ordered list of stages a partition must
// traverse, as a pure function of direction and role (spec §4.2). The
// orderings and role-gated inclusions are contractual.
package itinerary

import (
	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/topology"
)

// Push returns the push itinerary for device under flags. If device is the
// CPU sentinel the itinerary is empty.
func Push(flags topology.Flags, device int) []stage.Type {
	if topology.IsCPU(device) {
		return nil
	}

	var q []stage.Type

	// Per-PCIe-switch NCCL reduce.
	if flags.NCCLIsSignalRoot {
		q = append(q, stage.Reduce)
	} else {
		q = append(q, stage.CoordinateReduce, stage.Reduce)
	}

	// Copy from device to host.
	if flags.IsDistributed || flags.IsCrossPCIeSwitch {
		q = append(q, stage.CopyD2H)
	}

	// Cross-PCIe-switch reduce.
	if flags.IsCrossPCIeSwitch {
		q = append(q, stage.PcieReduce)
	}

	// Push in distributed mode.
	if flags.IsDistributed {
		if flags.IsRootDevice {
			q = append(q, stage.Push)
		} else {
			q = append(q, stage.CoordinatePush)
		}
	}

	return q
}

// Pull returns the pull itinerary for device under flags. If device is the
// CPU sentinel the itinerary is empty.
func Pull(flags topology.Flags, device int) []stage.Type {
	if topology.IsCPU(device) {
		return nil
	}

	var q []stage.Type

	// Pull in distributed mode — only the root device pulls from the
	// parameter server; non-root devices receive via the broadcast below.
	if flags.IsDistributed && flags.IsRootDevice {
		q = append(q, stage.Pull)
	}

	// Copy from host to device.
	if flags.IsDistributed || flags.IsCrossPCIeSwitch {
		q = append(q, stage.CopyH2D)
	}

	// Per-PCIe-switch NCCL broadcast.
	if flags.NCCLIsSignalRoot {
		q = append(q, stage.Broadcast)
	} else {
		q = append(q, stage.CoordinateBroadcast, stage.Broadcast)
	}

	return q
}
