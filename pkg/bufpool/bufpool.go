// Package bufpool provides a tiered pool of block-aligned byte buffers.
//
// Direct I/O requires that transfer buffers start on a block boundary in
// memory, not just that offsets and lengths are block multiples. Go's
// allocator gives no alignment guarantee beyond the type's natural alignment,
// so every buffer handed out here is carved out of a slightly oversized
// allocation at the first 512-byte boundary.
//
// # Design Rationale
//
// The pool uses three size tiers to balance memory efficiency with reuse:
//   - Small buffers (4KB): single-block and short payloads
//   - Medium buffers (64KB): typical object payloads
//   - Large buffers (1MB): bulk transfers
//
// Buffers larger than the large tier are allocated directly (still aligned)
// and not pooled, to avoid keeping very large buffers in memory indefinitely.
//
// # Thread Safety
//
// All operations are thread-safe via sync.Pool. Safe for concurrent use
// across multiple connections and goroutines.
//
// # Usage
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
//	// ... use buf ...
package bufpool

import (
	"sync"
	"unsafe"
)

// Alignment is the memory alignment boundary for all pooled buffers.
// It matches the 512-byte logical block size direct I/O transfers require.
const Alignment = 512

// Buffer size classes. All are multiples of Alignment.
const (
	// SmallSize covers single-block and short payloads (4KB)
	SmallSize = 4 << 10

	// MediumSize covers typical object payloads (64KB)
	MediumSize = 64 << 10

	// LargeSize covers bulk transfers (1MB)
	LargeSize = 1 << 20
)

// Pool manages byte slice pools organized by size class. Every slice it
// returns starts on an Alignment boundary and has capacity equal to its tier,
// so Put can route it back by capacity alone.
type Pool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

// NewPool creates a new aligned buffer pool.
func NewPool() *Pool {
	return &Pool{
		small:  sync.Pool{New: func() any { b := alignedSlice(SmallSize); return &b }},
		medium: sync.Pool{New: func() any { b := alignedSlice(MediumSize); return &b }},
		large:  sync.Pool{New: func() any { b := alignedSlice(LargeSize); return &b }},
	}
}

// alignedSlice allocates a slice of the given size whose first byte sits on
// an Alignment boundary. The capacity is pinned to size so that tier
// membership survives reslicing by callers.
func alignedSlice(size int) []byte {
	raw := make([]byte, size+Alignment)
	off := Alignment - int(uintptr(unsafe.Pointer(&raw[0]))&(Alignment-1))
	return raw[off : off+size : off+size]
}

// aligned reports whether the slice starts on an Alignment boundary.
func aligned(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&buf[0]))&(Alignment-1) == 0
}

// Get returns an aligned byte slice of exactly the requested size.
// The slice capacity may exceed size to match the pool's size classes.
//
// The caller must call Put() when finished with the buffer. Contents are
// not zeroed; callers that write partial blocks must clear the tail
// themselves before issuing direct I/O.
//
// For sizes larger than LargeSize an aligned slice is allocated directly and
// will not be pooled.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= SmallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= MediumSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= LargeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		// Oversized: allocate aligned but unpooled.
		return alignedSlice(size)[:size]
	}

	return (*bufPtr)[:size]
}

// Put returns a buffer to the pool for reuse. The buffer must have been
// obtained from Get() and must not be used after Put().
//
// Oversized buffers (and anything that lost its alignment) are dropped and
// left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil || !aligned(buf) {
		return
	}

	full := buf[:cap(buf)]

	switch cap(buf) {
	case SmallSize:
		p.small.Put(&full)
	case MediumSize:
		p.medium.Put(&full)
	case LargeSize:
		p.large.Put(&full)
	}
}

// globalPool is the package-level pool shared across all users of the package.
var globalPool = NewPool()

// Get returns an aligned byte slice of the requested size from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool.
// Always pair this with Get() using defer to ensure buffers are returned.
func Put(buf []byte) {
	globalPool.Put(buf)
}
