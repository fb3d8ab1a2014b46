// Package shm provides the shared-memory allocator contract the init
// protocol uses to acquire the host staging buffer for a context (spec §6
// — "openSharedMemory(key, size), openPcieSharedMemory(key, size)"), plus
// an in-process default implementation backed by plain byte slices. A real
// deployment would back this with POSIX shm_open/mmap; the control plane
// only needs the contract.
package shm

import (
	"sync"

	"github.com/gradsync/gradsync/errs"
)

// Allocator opens shared-memory regions keyed by the first partition key of
// the context that owns them.
type Allocator interface {
	// OpenSharedMemory returns a single host buffer of size bytes.
	OpenSharedMemory(key int64, size int) ([]byte, error)

	// OpenPcieSharedMemory returns one buffer per PCIe switch, each of size
	// bytes; the caller treats the last one as canonical (spec §4.6 step 2).
	OpenPcieSharedMemory(key int64, size int, switches int) ([][]byte, error)

	// Release frees the region(s) opened under key. Called at shutdown for
	// contexts where reuse_buff is false.
	Release(key int64)
}

// MemoryAllocator is an in-process Allocator: "shared" memory is just a
// byte slice retained in a map, which is sufficient for a single-process
// deployment or for tests that never cross a process boundary.
type MemoryAllocator struct {
	mu      sync.Mutex
	regions map[int64][]byte
	pcie    map[int64][][]byte
}

// New creates an empty MemoryAllocator.
func New() *MemoryAllocator {
	return &MemoryAllocator{
		regions: make(map[int64][]byte),
		pcie:    make(map[int64][][]byte),
	}
}

// OpenSharedMemory allocates (or returns the existing) buffer for key.
// Reopening the same key with a different size is an invariant violation:
// a context's buffer length is immutable once registered (spec §3).
func (a *MemoryAllocator) OpenSharedMemory(key int64, size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.regions[key]; ok {
		if len(existing) != size {
			return nil, errs.InvariantErrorf("OpenSharedMemory", "key %d already open with size %d, requested %d", key, len(existing), size)
		}
		return existing, nil
	}
	buf := make([]byte, size)
	a.regions[key] = buf
	return buf, nil
}

// OpenPcieSharedMemory allocates switches independent buffers of size
// bytes each, all addressable under key.
func (a *MemoryAllocator) OpenPcieSharedMemory(key int64, size int, switches int) ([][]byte, error) {
	if switches <= 0 {
		return nil, errs.InvariantErrorf("OpenPcieSharedMemory", "switches must be positive, got %d", switches)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.pcie[key]; ok {
		return existing, nil
	}
	buffers := make([][]byte, switches)
	for i := range buffers {
		buffers[i] = make([]byte, size)
	}
	a.pcie[key] = buffers
	return buffers, nil
}

// Release drops both the single-region and per-switch allocations for key.
func (a *MemoryAllocator) Release(key int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.regions, key)
	delete(a.pcie, key)
}
