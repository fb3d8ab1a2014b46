package capability

import (
	"context"
	"sync"

	"github.com/gradsync/gradsync/errs"
)

// LocalCollective is an in-process Collective: reduce and broadcast both
// degenerate to a no-op copy because there is only one participant to
// coordinate with. It exists so the pipeline is exercisable in tests and in
// single-device deployments without a real NCCL-style library wired in.
type LocalCollective struct{}

// Reduce is a no-op: a single local participant has nothing to reduce with.
func (LocalCollective) Reduce(_ context.Context, _ int64, _ []byte) error { return nil }

// Broadcast is a no-op for the same reason.
func (LocalCollective) Broadcast(_ context.Context, _ int64, _ []byte) error { return nil }

// LocalCopier moves bytes with a plain copy, standing in for a real
// device-to-host/host-to-device DMA transfer.
type LocalCopier struct{}

// DeviceToHost copies device into host, failing if host is too small.
func (LocalCopier) DeviceToHost(_ context.Context, device []byte, host []byte) error {
	if len(host) < len(device) {
		return errs.InvariantErrorf("DeviceToHost", "host buffer too small: have %d need %d", len(host), len(device))
	}
	copy(host, device)
	return nil
}

// HostToDevice copies host into device, failing if device is too small.
func (LocalCopier) HostToDevice(_ context.Context, host []byte, device []byte) error {
	if len(device) < len(host) {
		return errs.InvariantErrorf("HostToDevice", "device buffer too small: have %d need %d", len(device), len(host))
	}
	copy(device, host)
	return nil
}

// LocalPcieReducer XORs every non-root buffer into the root buffer in
// place, a stand-in reduction that needs no real PCIe fabric to exercise
// the PCIE_REDUCE stage end to end.
type LocalPcieReducer struct{}

// Reduce combines buffers into buffers[root].
func (LocalPcieReducer) Reduce(_ context.Context, buffers [][]byte, root int) error {
	if root < 0 || root >= len(buffers) {
		return errs.InvariantErrorf("PcieReduce", "root index %d out of range [0,%d)", root, len(buffers))
	}
	dst := buffers[root]
	for i, buf := range buffers {
		if i == root {
			continue
		}
		if len(buf) != len(dst) {
			return errs.InvariantErrorf("PcieReduce", "buffer %d length %d does not match root length %d", i, len(buf), len(dst))
		}
		for j := range dst {
			dst[j] ^= buf[j]
		}
	}
	return nil
}

// LocalParameterServer is an in-memory ParameterServer: keys map to their
// last-pushed value. It has no network behavior and exists to exercise the
// PUSH/PULL stages and the init seeding push without a real parameter
// server deployment.
type LocalParameterServer struct {
	mu      sync.Mutex
	store   map[int64][]byte
	workers int
	barrier chan struct{}
	arrived int
}

// NewLocalParameterServer creates a server that expects workers parties at
// each Barrier call.
func NewLocalParameterServer(workers int) *LocalParameterServer {
	if workers <= 0 {
		workers = 1
	}
	return &LocalParameterServer{
		store:   make(map[int64][]byte),
		workers: workers,
		barrier: make(chan struct{}),
	}
}

// ZPush stores vals under keys, ignoring cmd (the local server does not
// distinguish init pushes from steady-state ones).
func (s *LocalParameterServer) ZPush(_ context.Context, keys []int64, vals [][]byte, _ PushPullCmd) error {
	if len(keys) != len(vals) {
		return errs.InvariantErrorf("ZPush", "keys/vals length mismatch: %d vs %d", len(keys), len(vals))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range keys {
		buf := make([]byte, len(vals[i]))
		copy(buf, vals[i])
		s.store[k] = buf
	}
	return nil
}

// ZPull returns the last-pushed value for each key, or a zero-filled
// buffer of the requested length if the key was never pushed.
func (s *LocalParameterServer) ZPull(_ context.Context, keys []int64, lens []int, _ PushPullCmd) ([][]byte, error) {
	if len(keys) != len(lens) {
		return nil, errs.InvariantErrorf("ZPull", "keys/lens length mismatch: %d vs %d", len(keys), len(lens))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := s.store[k]; ok {
			out[i] = v
		} else {
			out[i] = make([]byte, lens[i])
		}
	}
	return out, nil
}

// Wait is a no-op: the local server's ZPush/ZPull are already synchronous.
func (s *LocalParameterServer) Wait(_ context.Context, _ []int64) error { return nil }

// EncodeDefaultKey folds aux into key's low 16 bits the way a real
// parameter server shards on (key, metadata) pairs.
func (s *LocalParameterServer) EncodeDefaultKey(key int64, aux int) int64 {
	return key<<16 | int64(uint16(aux))
}

// Barrier blocks the calling goroutine until workers goroutines have called
// Barrier, mirroring a worker-group barrier (spec §4.6 step 3).
func (s *LocalParameterServer) Barrier(ctx context.Context) error {
	s.mu.Lock()
	s.arrived++
	release := s.barrier
	last := s.arrived == s.workers
	if last {
		s.arrived = 0
		s.barrier = make(chan struct{})
	}
	s.mu.Unlock()

	if last {
		close(release)
		return nil
	}
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
