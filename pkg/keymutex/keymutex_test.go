package keymutex

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMutex_SameKeySerializes(t *testing.T) {
	var m KeyMutex[string]
	const numGoroutines = 50

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			unlock := m.Lock("saga")
			defer unlock()

			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load(), "only one holder per key at a time")
	assert.Equal(t, 0, m.Len(), "entries are dropped after the last release")
}

func TestKeyMutex_DifferentKeysDoNotBlock(t *testing.T) {
	var m KeyMutex[int]

	unlockA := m.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock(2)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "lock on a different key blocked")
	}
}

func TestKeyMutex_UnlockIsIdempotent(t *testing.T) {
	var m KeyMutex[string]

	unlock := m.Lock("a")
	unlock()
	unlock()

	assert.Equal(t, 0, m.Len())

	unlock = m.Lock("a")
	assert.Equal(t, 1, m.Len())
	unlock()
}
