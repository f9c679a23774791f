package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandle struct {
	closes atomic.Int32
}

func (h *countingHandle) Close() error {
	h.closes.Add(1)
	return nil
}

func TestHandleCache(t *testing.T) {
	t.Run("returns cached handle on second access", func(t *testing.T) {
		cache := NewHandleCache(nil)
		factoryCalls := 0

		first, err := cache.GetOrCreate("k", func() (Handle, error) {
			factoryCalls++
			return &countingHandle{}, nil
		})
		require.NoError(t, err)

		second, err := cache.GetOrCreate("k", func() (Handle, error) {
			factoryCalls++
			return &countingHandle{}, nil
		})
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, factoryCalls)
	})

	t.Run("factory error is propagated and nothing cached", func(t *testing.T) {
		cache := NewHandleCache(nil)
		boom := errors.New("connect failed")

		_, err := cache.GetOrCreate("k", func() (Handle, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, cache.Len())

		// Next caller retries the factory.
		handle, err := cache.GetOrCreate("k", func() (Handle, error) {
			return &countingHandle{}, nil
		})
		require.NoError(t, err)
		assert.NotNil(t, handle)
	})

	t.Run("concurrent first access converges to one retained handle", func(t *testing.T) {
		cache := NewHandleCache(nil)
		const callers = 32

		var created []*countingHandle
		var createdMu sync.Mutex

		results := make([]Handle, callers)
		var start, done sync.WaitGroup
		start.Add(1)
		done.Add(callers)
		for i := 0; i < callers; i++ {
			i := i
			go func() {
				defer done.Done()
				start.Wait()
				handle, err := cache.GetOrCreate("k", func() (Handle, error) {
					h := &countingHandle{}
					createdMu.Lock()
					created = append(created, h)
					createdMu.Unlock()
					return h, nil
				})
				assert.NoError(t, err)
				results[i] = handle
			}()
		}
		start.Done()
		done.Wait()

		winner := results[0]
		for _, handle := range results {
			assert.Same(t, winner, handle)
		}
		assert.Equal(t, 1, cache.Len())

		// Every losing handle was closed exactly once, the winner not
		// at all.
		for _, h := range created {
			if h == winner {
				assert.Equal(t, int32(0), h.closes.Load())
			} else {
				assert.Equal(t, int32(1), h.closes.Load())
			}
		}
	})

	t.Run("Close releases every handle exactly once", func(t *testing.T) {
		cache := NewHandleCache(nil)
		a := &countingHandle{}
		b := &countingHandle{}
		_, err := cache.GetOrCreate("a", func() (Handle, error) { return a, nil })
		require.NoError(t, err)
		_, err = cache.GetOrCreate("b", func() (Handle, error) { return b, nil })
		require.NoError(t, err)

		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())

		assert.Equal(t, int32(1), a.closes.Load())
		assert.Equal(t, int32(1), b.closes.Load())
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("Close aggregates handle close errors", func(t *testing.T) {
		cache := NewHandleCache(nil)
		closeErr := errors.New("flush failed")
		_, err := cache.GetOrCreate("bad", func() (Handle, error) {
			return closeErrHandle{err: closeErr}, nil
		})
		require.NoError(t, err)

		assert.ErrorIs(t, cache.Close(), closeErr)
	})
}

type closeErrHandle struct {
	err error
}

func (h closeErrHandle) Close() error { return h.err }
