package itinerary

import (
	"testing"

	"github.com/gradsync/gradsync/model/stage"
	"github.com/gradsync/gradsync/topology"
	"github.com/stretchr/testify/assert"
)

const gpuDevice = 0

func TestPush_CPUShortCircuit(t *testing.T) {
	assert.Empty(t, Push(topology.Flags{}, topology.CPUDeviceID))
}

func TestPull_CPUShortCircuit(t *testing.T) {
	assert.Empty(t, Pull(topology.Flags{}, topology.CPUDeviceID))
}

// TestPush_AllCombinations enumerates all 16 role-flag combinations and
// checks the push itinerary against the table in spec §4.2.
func TestPush_AllCombinations(t *testing.T) {
	for _, dist := range []bool{false, true} {
		for _, root := range []bool{false, true} {
			for _, pcie := range []bool{false, true} {
				for _, signal := range []bool{false, true} {
					flags := topology.Flags{
						IsDistributed:     dist,
						IsRootDevice:      root,
						IsCrossPCIeSwitch: pcie,
						NCCLIsSignalRoot:  signal,
					}

					var want []stage.Type
					if signal {
						want = append(want, stage.Reduce)
					} else {
						want = append(want, stage.CoordinateReduce, stage.Reduce)
					}
					if dist || pcie {
						want = append(want, stage.CopyD2H)
					}
					if pcie {
						want = append(want, stage.PcieReduce)
					}
					if dist {
						if root {
							want = append(want, stage.Push)
						} else {
							want = append(want, stage.CoordinatePush)
						}
					}

					got := Push(flags, gpuDevice)
					assert.Equal(t, want, got, "flags=%+v", flags)
				}
			}
		}
	}
}

// TestPull_AllCombinations enumerates all 16 role-flag combinations and
// checks the pull itinerary against the table in spec §4.2.
func TestPull_AllCombinations(t *testing.T) {
	for _, dist := range []bool{false, true} {
		for _, root := range []bool{false, true} {
			for _, pcie := range []bool{false, true} {
				for _, signal := range []bool{false, true} {
					flags := topology.Flags{
						IsDistributed:     dist,
						IsRootDevice:      root,
						IsCrossPCIeSwitch: pcie,
						NCCLIsSignalRoot:  signal,
					}

					var want []stage.Type
					if dist && root {
						want = append(want, stage.Pull)
					}
					if dist || pcie {
						want = append(want, stage.CopyH2D)
					}
					if signal {
						want = append(want, stage.Broadcast)
					} else {
						want = append(want, stage.CoordinateBroadcast, stage.Broadcast)
					}

					got := Pull(flags, gpuDevice)
					assert.Equal(t, want, got, "flags=%+v", flags)
				}
			}
		}
	}
}

// Scenarios below mirror spec §8's concrete walkthroughs.

func TestScenario_NonDistributedSignalRoot(t *testing.T) {
	flags := topology.Flags{NCCLIsSignalRoot: true}
	assert.Equal(t, []stage.Type{stage.Reduce}, Push(flags, gpuDevice))
}

func TestScenario_DistributedRootSignalRoot(t *testing.T) {
	flags := topology.Flags{IsDistributed: true, IsRootDevice: true, NCCLIsSignalRoot: true}
	assert.Equal(t, []stage.Type{stage.Reduce, stage.CopyD2H, stage.Push}, Push(flags, gpuDevice))
	assert.Equal(t, []stage.Type{stage.Pull, stage.CopyH2D, stage.Broadcast}, Pull(flags, gpuDevice))
}

func TestScenario_DistributedNonRootSignalRoot(t *testing.T) {
	flags := topology.Flags{IsDistributed: true, IsRootDevice: false, NCCLIsSignalRoot: true}
	assert.Equal(t, []stage.Type{stage.Reduce, stage.CopyD2H, stage.CoordinatePush}, Push(flags, gpuDevice))
	assert.Equal(t, []stage.Type{stage.CopyH2D, stage.Broadcast}, Pull(flags, gpuDevice))
}

func TestScenario_CrossPCIeNonDistributedNonSignalRoot(t *testing.T) {
	flags := topology.Flags{IsCrossPCIeSwitch: true}
	assert.Equal(t, []stage.Type{stage.CoordinateReduce, stage.Reduce, stage.CopyD2H, stage.PcieReduce}, Push(flags, gpuDevice))
	assert.Equal(t, []stage.Type{stage.CopyH2D, stage.CoordinateBroadcast, stage.Broadcast}, Pull(flags, gpuDevice))
}
