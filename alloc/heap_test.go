package alloc_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtarnawska/segheap/alloc"
)

func newTestHeap(t *testing.T) *alloc.Heap {
	t.Helper()
	sbrk := alloc.NewMemorySbrk(1 << 20)
	h, err := alloc.New(sbrk, alloc.DefaultOptions())
	require.NoError(t, err)
	return h
}

func mustCheck(t *testing.T, h *alloc.Heap) {
	t.Helper()
	require.NoError(t, h.CheckHeap(0, nil))
}

// S1: init(); p = malloc(8); -- heap grows by SbrkMin, remainder is one
// free block, p is a used 16-byte block.
func TestMallocSmallGrowsBySbrkMin(t *testing.T) {
	h := newTestHeap(t)

	p, err := h.Malloc(8)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, uintptr(0), uintptr(p)%16, "payload pointer must be 16-aligned")

	mustCheck(t, h)

	stats := h.Stats()
	assert.EqualValues(t, 1, stats.Mallocs)
	assert.Equal(t, uintptr(512), stats.HeapInuse+stats.HeapIdle)
	assert.Equal(t, uintptr(16), stats.HeapInuse)
	assert.Equal(t, uintptr(496), stats.HeapIdle)
}

// S2: after freeing both of two allocations, the whole heap coalesces into
// (at most) one free region, and the free list has at most two nodes.
func TestFreeBothCoalesces(t *testing.T) {
	h := newTestHeap(t)

	a, err := h.Malloc(40)
	require.NoError(t, err)
	b, err := h.Malloc(40)
	require.NoError(t, err)

	h.Free(a)
	mustCheck(t, h)
	h.Free(b)
	mustCheck(t, h)

	stats := h.Stats()
	assert.Zero(t, stats.HeapInuse)
	assert.Equal(t, stats.HeapIdle, stats.HeapSys)
}

// S3: three 4000-byte allocations, free the middle one: PREVFREE must be set
// on the block following the freed one.
func TestFreeMiddleSetsPrevFree(t *testing.T) {
	h := newTestHeap(t)

	_, err := h.Malloc(4000)
	require.NoError(t, err)
	b, err := h.Malloc(4000)
	require.NoError(t, err)
	_, err = h.Malloc(4000)
	require.NoError(t, err)

	h.Free(b)
	mustCheck(t, h)

	stats := h.Stats()
	assert.Equal(t, uintptr(4016), stats.HeapIdle)
}

// S4: shrink-in-place short-circuit: realloc to a smaller size that still
// fits the existing block returns the same pointer.
func TestReallocShrinkInPlace(t *testing.T) {
	h := newTestHeap(t)

	p, err := h.Malloc(100)
	require.NoError(t, err)

	q, err := h.Realloc(p, 50)
	require.NoError(t, err)
	assert.Equal(t, p, q)
	mustCheck(t, h)
}

// S5: grow-in-place by merging a freed neighbor.
func TestReallocGrowInPlace(t *testing.T) {
	h := newTestHeap(t)

	p, err := h.Malloc(100)
	require.NoError(t, err)
	q, err := h.Malloc(100)
	require.NoError(t, err)
	h.Free(q)
	mustCheck(t, h)

	r, err := h.Realloc(p, 200)
	require.NoError(t, err)
	assert.Equal(t, p, r)
	mustCheck(t, h)
}

// S6: calloc zeroes memory.
func TestCallocZeroes(t *testing.T) {
	h := newTestHeap(t)

	p, err := h.Calloc(10, 8)
	require.NoError(t, err)
	require.NotNil(t, p)

	buf := unsafe.Slice((*byte)(p), 80)
	for i, b := range buf {
		assert.Zerof(t, b, "byte %d not zeroed", i)
	}
}

func TestCallocOverflow(t *testing.T) {
	h := newTestHeap(t)
	_, err := h.Calloc(^uintptr(0), 2)
	assert.ErrorIs(t, err, alloc.ErrOverflow)
}

func TestReallocSizeZeroFreesAndReturnsNil(t *testing.T) {
	h := newTestHeap(t)
	p, err := h.Malloc(32)
	require.NoError(t, err)

	q, err := h.Realloc(p, 0)
	require.NoError(t, err)
	assert.Nil(t, q)
	mustCheck(t, h)
}

func TestReallocNilPtrActsLikeMalloc(t *testing.T) {
	h := newTestHeap(t)
	p, err := h.Realloc(nil, 24)
	require.NoError(t, err)
	assert.NotNil(t, p)
	mustCheck(t, h)
}

func TestFreeNilIsNoop(t *testing.T) {
	h := newTestHeap(t)
	h.Free(nil) // must not panic
}

func TestReallocPreservesContents(t *testing.T) {
	h := newTestHeap(t)

	p, err := h.Malloc(100)
	require.NoError(t, err)
	src := unsafe.Slice((*byte)(p), 100)
	for i := range src {
		src[i] = byte(i)
	}

	// Force a copying realloc by allocating a neighbor so grow-in-place
	// cannot apply.
	_, err = h.Malloc(16)
	require.NoError(t, err)

	q, err := h.Realloc(p, 4000)
	require.NoError(t, err)
	require.NotEqual(t, p, q)

	dst := unsafe.Slice((*byte)(q), 100)
	for i := range dst {
		assert.Equal(t, byte(i), dst[i])
	}
	mustCheck(t, h)
}

func TestManyAllocationsNonOverlapping(t *testing.T) {
	h := newTestHeap(t)

	const n = 64
	ptrs := make([]unsafe.Pointer, n)
	sizes := make([]uintptr, n)
	for i := 0; i < n; i++ {
		size := uintptr(8 + i*8)
		p, err := h.Malloc(size)
		require.NoError(t, err)
		ptrs[i] = p
		sizes[i] = size
		buf := unsafe.Slice((*byte)(p), size)
		for j := range buf {
			buf[j] = byte(i)
		}
	}
	mustCheck(t, h)

	for i := 0; i < n; i++ {
		buf := unsafe.Slice((*byte)(ptrs[i]), sizes[i])
		for j := range buf {
			require.Equalf(t, byte(i), buf[j], "allocation %d corrupted at byte %d", i, j)
		}
	}

	for i := 0; i < n; i += 2 {
		h.Free(ptrs[i])
	}
	mustCheck(t, h)
	for i := 1; i < n; i += 2 {
		buf := unsafe.Slice((*byte)(ptrs[i]), sizes[i])
		for j := range buf {
			require.Equalf(t, byte(i), buf[j], "surviving allocation %d corrupted at byte %d", i, j)
		}
	}
}

func TestOutOfMemory(t *testing.T) {
	sbrk := alloc.NewMemorySbrk(64) // barely enough for init padding
	h, err := alloc.New(sbrk, alloc.DefaultOptions())
	require.NoError(t, err)

	_, err = h.Malloc(1 << 20)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)
}
