package alloc

import (
	"fmt"
	"io"
)

// CheckHeap verifies block-layout invariants by walking the block sequence
// and the free list: PREVFREE consistency, free-list membership in both
// directions, full coalescing, neighbor offsets staying inside the heap, and
// last being the final block. It does not check free-list ordering by size
// class, class-head pointers, or that footers match headers. verbose
// controls what it prints to w
// (which may be nil when verbose == 0):
//
//	0: silent verify
//	1: print the heap and free list, then verify
//	2: print only, skip verification
//
// Unlike the source this is modeled on (which calls exit(EXIT_FAILURE) on
// the first violation), CheckHeap returns an *InvariantError describing the
// problem. CheckHeap makes no observable changes to heap state.
func (h *Heap) CheckHeap(verbose int, w io.Writer) error {
	if verbose >= 1 {
		h.printHeap(w)
	}
	if verbose >= 2 {
		return nil
	}
	return h.verify()
}

func (h *Heap) verify() error {
	// PREVFREE is set iff the immediate predecessor is free (invariant 3),
	// checked from the successor's perspective: a free block must set
	// PREVFREE on whatever follows it, and a used block must not.
	for b := h.firstBlock(); b != offNone; b = h.btNext(b) {
		n := h.btNext(b)
		if n == offNone {
			continue
		}
		if h.btFree(b) && !h.btGetPrevFree(n) {
			return &InvariantError{
				Invariant: "prevfree-consistency",
				Offset:    uintptr(b),
				Detail:    "block is free but PREVFREE is not set on its successor",
			}
		}
		if h.btUsed(b) && h.btGetPrevFree(n) {
			return &InvariantError{
				Invariant: "prevfree-consistency",
				Offset:    uintptr(b),
				Detail:    "PREVFREE is set on successor but block is used",
			}
		}
	}

	// Every block on the free list is marked FREE (invariant 4, one direction).
	if h.freeList != offNone {
		b := h.freeList
		for {
			if h.btUsed(b) {
				return &InvariantError{
					Invariant: "free-list-membership",
					Offset:    uintptr(b),
					Detail:    "used block found on the free list",
				}
			}
			b = h.flNext(b)
			if b == h.freeList {
				break
			}
		}
	}

	// Every free block is on the free list (invariant 4, the other direction).
	for b := h.firstBlock(); b != offNone; b = h.btNext(b) {
		if h.btFree(b) && !h.flSearch(b) {
			return &InvariantError{
				Invariant: "free-list-membership",
				Offset:    uintptr(b),
				Detail:    "free block is not reachable from the free list",
			}
		}
	}

	// No two adjacent blocks are both free (invariant 6).
	for b := h.firstBlock(); b != offNone; b = h.btNext(b) {
		if h.btFree(b) && h.btGetPrevFree(b) {
			return &InvariantError{
				Invariant: "no-contiguous-free-blocks",
				Offset:    uintptr(b),
				Detail:    "two contiguous free blocks",
			}
		}
	}

	// Each block's physical neighbor offsets (btPrev/btNext) stay within the
	// heap. Free-list links are not checked here.
	for b := h.firstBlock(); b != offNone; b = h.btNext(b) {
		p := h.btPrev(b)
		n := h.btNext(b)
		if p != offNone && h.addr(p) < h.heapStartAddr {
			return &InvariantError{
				Invariant: "links-within-heap",
				Offset:    uintptr(b),
				Detail:    "previous-block link points before heapStart",
			}
		}
		if n != offNone && h.addr(n) > h.addr(h.heapEnd) {
			return &InvariantError{
				Invariant: "links-within-heap",
				Offset:    uintptr(b),
				Detail:    "next-block link points past heapEnd",
			}
		}
	}

	// last points to the block whose end is heapEnd (invariant 10).
	if h.last != offNone && h.btNext(h.last) != offNone {
		return &InvariantError{
			Invariant: "last-block",
			Offset:    uintptr(h.last),
			Detail:    "last does not point to the actual last block",
		}
	}

	return nil
}

func (h *Heap) firstBlock() off {
	if h.empty() {
		return offNone
	}
	return 0
}

func (h *Heap) printHeap(w io.Writer) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, "HEAP")
	i := 0
	for b := h.firstBlock(); b != offNone; b = h.btNext(b) {
		fmt.Fprintf(w, "  block %d: offset=%d size=%d used=%v prevfree=%v\n",
			i, uintptr(b), h.btSize(b), h.btUsed(b), h.btGetPrevFree(b))
		i++
	}

	fmt.Fprintln(w, "FREE LIST")
	if h.freeList != offNone {
		i = 0
		b := h.freeList
		for {
			fmt.Fprintf(w, "  free block %d: offset=%d size=%d next=%d prev=%d\n",
				i, uintptr(b), h.btSize(b), uintptr(h.flNext(b)), uintptr(h.flPrev(b)))
			b = h.flNext(b)
			i++
			if b == h.freeList {
				break
			}
		}
	}
}
