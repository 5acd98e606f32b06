package alloc

import (
	"fmt"
	"strings"

	"github.com/inhies/go-bytesize"
)

// Stats summarizes a Heap's current state, named and shaped after the
// standard library's runtime.MemStats.
type Stats struct {
	HeapSys   uintptr // total bytes of block space claimed from Sbrk, init padding excluded
	HeapInuse uintptr // bytes currently allocated to live blocks
	HeapIdle  uintptr // bytes currently free

	Mallocs    uint64
	Frees      uint64
	TotalAlloc uint64 // cumulative bytes requested across all Malloc/Calloc calls

	LargestFreeBlock  uintptr
	FreeBlocksByClass [numClasses]uint64
}

// Stats computes a snapshot of the heap's current state by walking the
// block sequence once. It does not modify heap state.
func (h *Heap) Stats() Stats {
	s := Stats{
		Mallocs:    h.mallocs,
		Frees:      h.frees,
		TotalAlloc: h.totalAlloc,
	}
	if h.empty() {
		return s
	}
	s.HeapSys = uintptr(h.heapEnd)

	for b := h.firstBlock(); b != offNone; b = h.btNext(b) {
		size := h.btSize(b)
		if h.btUsed(b) {
			s.HeapInuse += size
			continue
		}
		s.HeapIdle += size
		if size > s.LargestFreeBlock {
			s.LargestFreeBlock = size
		}
		class := sizeClass(size, h.opts.listnumMax)
		s.FreeBlocksByClass[classIndex(class)]++
	}
	return s
}

// String renders a Stats in human-readable form, with byte counts formatted
// via github.com/inhies/go-bytesize (e.g. "4.00KB" rather than "4096").
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sys=%s inuse=%s idle=%s mallocs=%d frees=%d total-alloc=%s largest-free=%s",
		humanBytes(s.HeapSys), humanBytes(s.HeapInuse), humanBytes(s.HeapIdle),
		s.Mallocs, s.Frees, humanBytes(uintptr(s.TotalAlloc)), humanBytes(s.LargestFreeBlock))
	return b.String()
}

func humanBytes(n uintptr) string {
	return bytesize.New(float64(n)).String()
}
