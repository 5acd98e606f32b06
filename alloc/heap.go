package alloc

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrOutOfMemory is returned (never panicked) when the host's Sbrk refuses
// to extend the heap any further.
var ErrOutOfMemory = errors.New("alloc: out of memory")

// ErrOverflow is returned by Calloc when n*size overflows uintptr. The
// original C source this allocator is modeled on has no such check; this is
// a deliberate fix, not a faithful port of that gap.
var ErrOverflow = errors.New("alloc: calloc size overflow")

// Options configures a Heap's tunables. It mirrors config.Options without
// importing package config (which instead depends on this package).
type Options struct {
	Alignment  uintptr // power of two block alignment, e.g. 16
	SbrkMin    uintptr // minimum heap-growth request, e.g. 512
	ListnumMax uintptr // ceiling size classes are clamped to, e.g. 8192
	DumpPath   string  // if non-empty, write a corruption snapshot here on InvariantError
}

// DefaultOptions returns the allocator's canonical tunables: 16-byte
// alignment, a 512-byte minimum sbrk request, and a listnumMax of 8192.
func DefaultOptions() Options {
	return Options{
		Alignment:  16,
		SbrkMin:    512,
		ListnumMax: 8192,
	}
}

// New creates a Heap backed by sbrk. It requests one alignment-padding Sbrk
// call so that the first block header lands such that the payload pointer
// ends up Alignment-aligned, equivalent to the source's mm_init.
func New(sbrk Sbrk, opts Options) (*Heap, error) {
	if opts.Alignment == 0 || opts.Alignment&(opts.Alignment-1) != 0 {
		return nil, fmt.Errorf("alloc: alignment %d is not a power of two", opts.Alignment)
	}
	if opts.SbrkMin == 0 {
		opts.SbrkMin = DefaultOptions().SbrkMin
	}
	if opts.ListnumMax == 0 {
		opts.ListnumMax = DefaultOptions().ListnumMax
	}

	padding := opts.Alignment - wordSize
	if _, err := sbrk.Sbrk(padding); err != nil {
		return nil, fmt.Errorf("alloc: initial sbrk padding failed: %w", err)
	}

	h := &Heap{
		sbrk: sbrk,
		opts: heapOptions{
			alignment:  opts.Alignment,
			sbrkMin:    opts.SbrkMin,
			listnumMax: opts.ListnumMax,
		},
		heapEnd:  0,
		last:     offNone,
		freeList: offNone,
		dumpPath: opts.DumpPath,
	}
	for i := range h.classHead {
		h.classHead[i] = offNone
	}
	return h, nil
}

// blockSize rounds size up to a block size: header word plus payload,
// aligned up to Alignment.
func (h *Heap) blockSize(size uintptr) uintptr {
	return (size + wordSize + h.opts.alignment - 1) &^ (h.opts.alignment - 1)
}

// Malloc returns a pointer to at least size writable bytes, aligned to
// Options.Alignment, or an error if the heap could not be grown.
func (h *Heap) Malloc(size uintptr) (unsafe.Pointer, error) {
	reqSize := h.blockSize(size)

	fit := h.findFit(reqSize)
	if fit == offNone {
		var err error
		fit, err = h.allocWithSbrk(reqSize)
		if err != nil {
			return nil, err
		}
	}

	next := h.btNext(fit)
	h.btClrPrevFree(next)

	h.mallocs++
	h.totalAlloc += uint64(size)

	return unsafe.Pointer(h.addr(h.btPayload(fit))), nil
}

// Free releases the allocation at ptr. A nil ptr is a no-op. ptr must have
// been previously returned by Malloc, Calloc, or Realloc, and must not
// already be free.
func (h *Heap) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	bt := h.btFromPayload(h.addrToOff(uintptr(ptr)))
	size := h.btSize(bt)
	prevFree := h.btGetPrevFree(bt)

	flags := uint32(0)
	if prevFree {
		flags |= flagPrevFree
	}
	h.btMake(bt, size, flags)
	h.btMake(h.btFooter(bt), size, flags)

	// Coalesce with the next block first (if free), then the previous block,
	// so that `last` updates stay consistent across both merges.
	next := h.btNext(bt)
	if next != offNone && h.btFree(next) {
		h.flRemove(next)
		h.mergeBlocks(bt, next)
	}
	if h.btGetPrevFree(bt) {
		prev := h.btPrev(bt)
		h.flRemove(prev)
		h.mergeBlocks(prev, bt)
		bt = prev
	}
	h.flAdd(bt)

	next = h.btNext(bt)
	if next != offNone {
		h.btSetPrevFree(next)
	}

	h.frees++
}

// Realloc resizes the allocation at ptr to size bytes, per the classical
// realloc contract:
//
//   - size == 0 is equivalent to Free(ptr); returns nil, nil.
//   - ptr == nil is equivalent to Malloc(size).
//   - if the existing block's capacity already satisfies size, ptr is
//     returned unchanged.
//   - if the immediately following block is free and large enough, the
//     allocation grows in place by merging into it (splitting the neighbor
//     first if it is larger than needed).
//   - otherwise a new block is allocated, the overlapping prefix is copied,
//     and the old block is freed. If allocation fails, ptr is left
//     untouched and an error is returned.
func (h *Heap) Realloc(ptr unsafe.Pointer, size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		h.Free(ptr)
		return nil, nil
	}
	if ptr == nil {
		return h.Malloc(size)
	}

	bt := h.btFromPayload(h.addrToOff(uintptr(ptr)))
	if h.btSize(bt)-wordSize >= size {
		return ptr, nil
	}

	next := h.btNext(bt)
	reqSize := h.blockSize(size)
	if next != offNone && h.btFree(next) && h.btSize(bt)+h.btSize(next)-wordSize >= reqSize {
		addSize := reqSize - h.btSize(bt)
		if h.btSize(next)-addSize > 0 {
			h.splitBlock(next, addSize)
		}

		h.flRemove(next)
		h.mergeBlocks(bt, next)

		next = h.btNext(bt)
		h.btClrPrevFree(next)
		return ptr, nil
	}

	newPtr, err := h.Malloc(size)
	if err != nil {
		return nil, err
	}

	oldSize := h.btSize(bt) - wordSize
	if size < oldSize {
		oldSize = size
	}
	copyBytes(newPtr, ptr, oldSize)

	h.Free(ptr)
	return newPtr, nil
}

// Calloc allocates n*size bytes and zeroes them. It returns ErrOverflow
// instead of silently wrapping when n*size overflows uintptr.
func (h *Heap) Calloc(n, size uintptr) (unsafe.Pointer, error) {
	if n != 0 && size > (^uintptr(0))/n {
		return nil, ErrOverflow
	}
	bytes := n * size

	ptr, err := h.Malloc(bytes)
	if err != nil {
		return nil, err
	}
	zero(ptr, bytes)
	return ptr, nil
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

func zero(ptr unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(ptr), n)
	for i := range b {
		b[i] = 0
	}
}
