// Package dao defines the minimal generic persistence contract used by the
// control plane's context registry: save/load/delete/list over a
// comparable key. The control plane has no durable storage requirement
// (spec §6 — "Persisted state: none beyond process lifetime"), so the only
// implementation shipped is an in-memory one (store.MemoryStore), but the
// interface is kept generic so a deployment could swap in a real store
// without touching registry callers.
package dao

import (
	"context"
)

// Service is a generic CRUD contract over entities of type T keyed by K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
