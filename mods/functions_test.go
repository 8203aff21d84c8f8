package mods

import (
	"fmt"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchOrder(t *testing.T) {
	var f Functions
	var calls []string
	for _, name := range []string{"A", "B", "C"} {
		name := name
		f.RegisterOnGameLoad(func(version uint32, state unsafe.Pointer) {
			calls = append(calls, fmt.Sprintf("%s(%d,%p)", name, version, state))
		})
	}
	state := unsafe.Pointer(new(uint64))

	f.DispatchGameLoad(7, state)

	require.Len(t, calls, 3)
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, fmt.Sprintf("%s(7,%p)", name, state), calls[i])
	}
}

func TestRegisterNil(t *testing.T) {
	var f Functions
	f.RegisterOnGameLoad(nil)
	assert.Equal(t, 0, f.Len())
	f.DispatchGameLoad(1, nil)
}

func TestDispatchSerialized(t *testing.T) {
	var f Functions
	inside := 0
	maxInside := 0
	f.RegisterOnGameLoad(func(uint32, unsafe.Pointer) {
		inside++
		if inside > maxInside {
			maxInside = inside
		}
		inside--
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint32) {
			defer wg.Done()
			f.DispatchGameLoad(v, nil)
		}(uint32(i))
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestGlobal(t *testing.T) {
	_, err := Global()
	assert.ErrorIs(t, err, ErrNotInitialized)

	f := Init()
	assert.Same(t, f, Init())
	g, err := Global()
	require.NoError(t, err)
	assert.Same(t, f, g)
}
