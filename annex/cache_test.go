package annex

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetPut(t *testing.T) {
	c := NewCache()

	_, ok := c.Get(61444)
	assert.False(t, ok)

	c.Put(61444, SpecPGN{Acronym: "EEC1"})
	spec, ok := c.Get(61444)
	require.True(t, ok)
	assert.Equal(t, "EEC1", spec.Acronym)
	assert.Equal(t, 1, c.Len())
}

func TestCacheSnapshotIsDetached(t *testing.T) {
	c := NewCache()
	c.Put(61444, SpecPGN{Acronym: "EEC1"})

	snapshot := c.Snapshot()
	c.Put(65262, SpecPGN{Acronym: "ET1"})

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, c.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				pgn := uint16(i % 16)
				if _, ok := c.Get(pgn); !ok {
					c.Put(pgn, SpecPGN{Acronym: fmt.Sprintf("PGN%d", pgn)})
				}
			}
		}(worker)
	}
	wg.Wait()

	assert.Equal(t, 16, c.Len())
	for i := 0; i < 16; i++ {
		spec, ok := c.Get(uint16(i))
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("PGN%d", i), spec.Acronym)
	}
}
