package capability

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalCopier_RoundTrip(t *testing.T) {
	var c LocalCopier
	device := []byte{1, 2, 3, 4}
	host := make([]byte, 4)
	assert.NoError(t, c.DeviceToHost(context.Background(), device, host))
	assert.Equal(t, device, host)

	back := make([]byte, 4)
	assert.NoError(t, c.HostToDevice(context.Background(), host, back))
	assert.Equal(t, device, back)
}

func TestLocalPcieReducer_XORsNonRootIntoRoot(t *testing.T) {
	var r LocalPcieReducer
	buffers := [][]byte{{1, 1}, {2, 2}, {4, 4}}
	assert.NoError(t, r.Reduce(context.Background(), buffers, 0))
	assert.Equal(t, []byte{7, 7}, buffers[0])
}

func TestLocalParameterServer_PushThenPull(t *testing.T) {
	s := NewLocalParameterServer(1)
	ctx := context.Background()

	err := s.ZPush(ctx, []int64{10, 20}, [][]byte{{1, 2}, {3, 4}}, DefaultPushPull)
	assert.NoError(t, err)

	vals, err := s.ZPull(ctx, []int64{10, 20}, []int{2, 2}, DefaultPushPull)
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, vals)
}

func TestLocalParameterServer_PullUnknownKeyReturnsZeroed(t *testing.T) {
	s := NewLocalParameterServer(1)
	vals, err := s.ZPull(context.Background(), []int64{99}, []int{3}, DefaultPushPull)
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{{0, 0, 0}}, vals)
}

func TestLocalParameterServer_BarrierReleasesAllWorkers(t *testing.T) {
	s := NewLocalParameterServer(3)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Barrier(context.Background()))
		}()
	}
	wg.Wait()
}

func TestLocalParameterServer_EncodeDefaultKeyDeterministic(t *testing.T) {
	s := NewLocalParameterServer(1)
	a := s.EncodeDefaultKey(5, 1)
	b := s.EncodeDefaultKey(5, 1)
	c := s.EncodeDefaultKey(5, 2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
