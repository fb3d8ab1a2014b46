// Package stage enumerates the fixed set of pipeline stages a partition can
// traverse. The set is closed: REDUCE, BROADCAST, COORDINATE_REDUCE,
// COORDINATE_BROADCAST, COPY_D2H, COPY_H2D, PCIE_REDUCE, PUSH, PULL and
// COORDINATE_PUSH (spec §4.4).
package stage

// Type identifies a pipeline stage and its dedicated scheduled queue.
type Type int

const (
	Reduce Type = iota
	Broadcast
	CoordinateReduce
	CoordinateBroadcast
	CopyD2H
	CopyH2D
	PcieReduce
	Push
	Pull
	CoordinatePush
)

// All lists every stage the engine knows about, in a stable order used for
// active-set computation and worker spawning.
var All = []Type{
	Reduce, Broadcast, CoordinateReduce, CoordinateBroadcast,
	CopyD2H, CopyH2D, PcieReduce, Push, Pull, CoordinatePush,
}

func (t Type) String() string {
	switch t {
	case Reduce:
		return "REDUCE"
	case Broadcast:
		return "BROADCAST"
	case CoordinateReduce:
		return "COORDINATE_REDUCE"
	case CoordinateBroadcast:
		return "COORDINATE_BROADCAST"
	case CopyD2H:
		return "COPY_D2H"
	case CopyH2D:
		return "COPY_H2D"
	case PcieReduce:
		return "PCIE_REDUCE"
	case Push:
		return "PUSH"
	case Pull:
		return "PULL"
	case CoordinatePush:
		return "COORDINATE_PUSH"
	default:
		return "UNKNOWN"
	}
}
