package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gradsync/gradsync/service/dao"
)

type record struct {
	ID    string
	Value int
}

func newStore() *MemoryStore[string, record] {
	return NewMemoryStore[string, record](func(r *record) string { return r.ID })
}

func TestMemoryStore_SaveThenLoad(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	assert.NoError(t, s.Save(ctx, &record{ID: "a", Value: 1}))

	got, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, got.Value)
}

func TestMemoryStore_LoadMissingReturnsNilNil(t *testing.T) {
	s := newStore()
	got, err := s.Load(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_SaveNilReturnsErrNilEntity(t *testing.T) {
	s := newStore()
	err := s.Save(context.Background(), nil)
	assert.ErrorIs(t, err, dao.ErrNilEntity)
}

func TestMemoryStore_DeleteMissingReturnsErrNotFound(t *testing.T) {
	s := newStore()
	err := s.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestMemoryStore_DeleteRemovesRecord(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	assert.NoError(t, s.Save(ctx, &record{ID: "a"}))

	assert.NoError(t, s.Delete(ctx, "a"))

	got, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ListReturnsEveryRecord(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	assert.NoError(t, s.Save(ctx, &record{ID: "a"}))
	assert.NoError(t, s.Save(ctx, &record{ID: "b"}))

	all, err := s.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}
