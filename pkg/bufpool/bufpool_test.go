package bufpool

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isAligned(t *testing.T, buf []byte) bool {
	t.Helper()
	require.NotEmpty(t, buf)
	return uintptr(unsafe.Pointer(&buf[0]))%Alignment == 0
}

func TestBufferAllocation(t *testing.T) {
	t.Run("AllocatesSmallBuffer", func(t *testing.T) {
		buf := Get(512)
		defer Put(buf)

		assert.Equal(t, 512, len(buf))
		assert.Equal(t, SmallSize, cap(buf))
		assert.True(t, isAligned(t, buf))
	})

	t.Run("AllocatesMediumBuffer", func(t *testing.T) {
		buf := Get(10 * 1024)
		defer Put(buf)

		assert.Equal(t, 10*1024, len(buf))
		assert.Equal(t, MediumSize, cap(buf))
		assert.True(t, isAligned(t, buf))
	})

	t.Run("AllocatesLargeBuffer", func(t *testing.T) {
		buf := Get(100 * 1024)
		defer Put(buf)

		assert.Equal(t, 100*1024, len(buf))
		assert.Equal(t, LargeSize, cap(buf))
		assert.True(t, isAligned(t, buf))
	})

	t.Run("AllocatesOversizedBuffer", func(t *testing.T) {
		buf := Get(2 * 1024 * 1024)
		defer Put(buf)

		assert.Equal(t, 2*1024*1024, len(buf))
		assert.True(t, isAligned(t, buf))
	})
}

func TestTierSizesAreBlockMultiples(t *testing.T) {
	assert.Zero(t, SmallSize%Alignment)
	assert.Zero(t, MediumSize%Alignment)
	assert.Zero(t, LargeSize%Alignment)
}

func TestPutAndReuse(t *testing.T) {
	p := NewPool()

	buf := p.Get(1024)
	require.True(t, isAligned(t, buf))
	p.Put(buf)

	// The recycled buffer must still be aligned
	buf2 := p.Get(4096)
	defer p.Put(buf2)
	assert.True(t, isAligned(t, buf2))
	assert.Equal(t, SmallSize, cap(buf2))
}

func TestPutNilIsSafe(t *testing.T) {
	assert.NotPanics(t, func() { Put(nil) })
}

func TestPutMisalignedIsDropped(t *testing.T) {
	p := NewPool()
	buf := p.Get(1024)

	// Reslicing off the boundary loses alignment; Put must not pool it
	assert.NotPanics(t, func() { p.Put(buf[1:]) })
}

func TestConcurrentGetPut(t *testing.T) {
	p := NewPool()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := p.Get(512 * (j%8 + 1))
				if !aligned(buf) {
					t.Error("pooled buffer lost alignment")
				}
				p.Put(buf)
			}
		}()
	}

	wg.Wait()
}
