// Package pipeline implements the stage loops: one dedicated worker per
// active stage, pulling ready tasks from its scheduler.Queue, driving the
// task's capability, and advancing it to the next stage or firing
// completion (spec §4.4). It replaces the teacher's generic workflow
// processor (service/processor) with a fixed, topology-derived set of
// loops purpose-built for this pipeline's ten stage kinds.
package pipeline

import (
	"github.com/gradsync/gradsync/itinerary"
	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/topology"
)

// ActiveStages computes the exact union of stages any legal push or pull
// itinerary can contain under flags (spec §4.4: "the active set ... is
// exactly the union of stages any legal itinerary can contain"). Device
// only matters for the CPU short-circuit, which yields an empty itinerary
// regardless of flags, so any non-CPU device id produces the same union.
func ActiveStages(flags topology.Flags) []stage.Type {
	const anyNonCPUDevice = 0

	seen := make(map[stage.Type]bool)
	var ordered []stage.Type
	add := func(stages []stage.Type) {
		for _, st := range stages {
			if !seen[st] {
				seen[st] = true
				ordered = append(ordered, st)
			}
		}
	}

	add(itinerary.Push(flags, anyNonCPUDevice))
	add(itinerary.Pull(flags, anyNonCPUDevice))

	return ordered
}
