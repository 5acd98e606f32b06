package config

import (
	"fmt"

	"github.com/wtarnawska/segheap/alloc"
)

// defaultMemoryCapacity is used when Backend == "memory" and the caller has
// no better estimate of how large the arena needs to be.
const defaultMemoryCapacity = 64 << 20 // 64 MiB

// NewHeap constructs the Sbrk backend named by o.Backend and an alloc.Heap
// on top of it, the way builder.go picks a GC backend from a string option
// and wires it into the rest of the toolchain.
func (o *Options) NewHeap() (*alloc.Heap, error) {
	if err := o.Verify(); err != nil {
		return nil, err
	}

	var sbrk alloc.Sbrk
	switch o.Backend {
	case "", "memory":
		capacity := o.MmapReserve
		if capacity == 0 {
			capacity = defaultMemoryCapacity
		}
		sbrk = alloc.NewMemorySbrk(capacity)
	case "mmap":
		var err error
		if o.MmapReserve != 0 {
			sbrk, err = alloc.NewMmapSbrkSize(o.MmapReserve)
		} else {
			sbrk, err = alloc.NewMmapSbrk()
		}
		if err != nil {
			return nil, fmt.Errorf("config: constructing mmap backend: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unknown backend %q", o.Backend)
	}

	return alloc.New(sbrk, alloc.Options{
		Alignment:  o.Alignment,
		SbrkMin:    o.SbrkMin,
		ListnumMax: o.ListnumMax,
		DumpPath:   o.DumpPath,
	})
}
