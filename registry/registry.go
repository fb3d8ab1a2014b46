// Package registry implements the context registry: the write-once,
// read-many map from tensor name to registration record (spec §3, §6
// get_context / is_tensor_initialized).
package registry

import (
	"context"
	"fmt"

	"github.com/gradsync/gradsync/errs"
	"github.com/gradsync/gradsync/internal/keygen"
	"github.com/gradsync/gradsync/service/dao"
	"github.com/gradsync/gradsync/service/dao/store"
	"github.com/gradsync/gradsync/tensor"
)

// Service exposes the registry operations the producer-facing surface
// needs: get-or-create a Context by name, and check whether a tensor of a
// given size is already registered and initialized.
type Service struct {
	store dao.Service[string, tensor.Context]
}

// New creates a registry backed by an in-memory store. The registry has no
// durable-storage requirement (spec §6), so this is the only implementation
// the control plane ships.
func New() *Service {
	return &Service{
		store: store.NewMemoryStore[string, tensor.Context](func(c *tensor.Context) string {
			return c.Name
		}),
	}
}

// GetOrCreate returns the existing Context registered under name, creating
// an empty one if none exists yet. The mapping from name to record is
// stable for the life of the process once created (spec §3 invariant).
func (s *Service) GetOrCreate(ctx context.Context, name string) (*tensor.Context, error) {
	existing, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to load context %q: %w", name, err)
	}
	if existing != nil {
		return existing, nil
	}
	created := &tensor.Context{Name: name}
	if err := s.store.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("registry: failed to save context %q: %w", name, err)
	}
	return created, nil
}

// Get returns the registration record for name, or an Uninitialized error
// if no context has been registered under that name.
func (s *Service) Get(ctx context.Context, name string) (*tensor.Context, error) {
	found, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to load context %q: %w", name, err)
	}
	if found == nil {
		return nil, errs.Uninitializedf("GetContext", "no context registered under %q", name)
	}
	return found, nil
}

// IsTensorInitialized reports whether a context exists under name with a
// matching BuffLen and Initialized==true (spec §6).
func (s *Service) IsTensorInitialized(ctx context.Context, name string, size int) bool {
	found, err := s.store.Load(ctx, name)
	if err != nil || found == nil {
		return false
	}
	return found.Initialized() && found.BuffLen == size
}

// List returns every registered Context, used at shutdown to release
// shared-memory regions the registry owns (spec §6, "released at shutdown
// unless reuse_buff").
func (s *Service) List(ctx context.Context) ([]*tensor.Context, error) {
	return s.store.List(ctx)
}

// Save persists (or re-persists) a Context. Used by the init protocol after
// it mutates a freshly-created Context in place.
func (s *Service) Save(ctx context.Context, c *tensor.Context) error {
	return s.store.Save(ctx, c)
}

// Register creates (or returns the existing) Context for name with its
// KeyList sized to ceil(buffLen/partitionBound), allocating fresh globally
// unique keys on first registration (spec §4.6 step 1 assumes KeyList is
// already populated by the time InitTensor runs). Re-registering an
// already-registered name with the same dimensions is a no-op; dimension
// mismatch on an existing registration is an InvariantViolation, since the
// registry-to-name mapping is supposed to be stable for the process
// lifetime (spec §3).
func (s *Service) Register(ctx context.Context, name string, buffLen, partitionBound int) (*tensor.Context, error) {
	existing, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to load context %q: %w", name, err)
	}
	if existing != nil {
		if existing.BuffLen != buffLen {
			return nil, errs.InvariantErrorf("Register", "context %q already registered with buff_len=%d, requested %d", name, existing.BuffLen, buffLen)
		}
		return existing, nil
	}

	partCount := (buffLen + partitionBound - 1) / partitionBound
	created := &tensor.Context{
		Name:    name,
		BuffLen: buffLen,
		KeyList: keygen.NextN(partCount),
	}
	if err := s.store.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("registry: failed to save context %q: %w", name, err)
	}
	return created, nil
}
