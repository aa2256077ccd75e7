package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndLookup(t *testing.T) {
	idx := New()

	idx.Record("test-1", 0, 13)

	e, ok := idx.Lookup("test-1")
	require.True(t, ok)
	assert.Equal(t, uint64(0), e.Offset)
	assert.Equal(t, uint64(13), e.Length)
}

func TestLookupMissing(t *testing.T) {
	idx := New()

	_, ok := idx.Lookup("never-written")
	assert.False(t, ok)
}

func TestRecordOverwrites(t *testing.T) {
	idx := New()

	idx.Record("test-1", 0, 13)
	idx.Record("test-1", 512, 20)

	e, ok := idx.Lookup("test-1")
	require.True(t, ok)
	assert.Equal(t, uint64(512), e.Offset, "second write must win")
	assert.Equal(t, uint64(20), e.Length)
	assert.Equal(t, 1, idx.Len())
}

func TestLen(t *testing.T) {
	idx := New()
	assert.Equal(t, 0, idx.Len())

	idx.Record("a", 0, 1)
	idx.Record("b", 512, 2)
	assert.Equal(t, 2, idx.Len())
}

func TestConcurrentAccess(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup

	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("writer-%d-%d", w, j)
				idx.Record(id, uint64(j)*512, uint64(j))
				e, ok := idx.Lookup(id)
				if !ok || e.Offset != uint64(j)*512 {
					t.Errorf("lookup %s = %+v, %v", id, e, ok)
				}
			}
		}(w)
	}

	wg.Wait()
	assert.Equal(t, 16*100, idx.Len())
}
