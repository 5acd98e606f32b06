//go:build linux || darwin

package alloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// defaultMmapReserve is the size of the virtual address range reserved up
// front by NewMmapSbrk. Pages within it are committed (made readable and
// writable) lazily as the heap grows, so reserving a generous range costs
// address space but no physical memory.
const defaultMmapReserve = 256 << 20 // 256 MiB

// mmapSbrk is an Sbrk backend that reserves a single large virtual memory
// range with mmap (PROT_NONE, so the kernel does not back it with physical
// pages) and commits a growing prefix of it with mprotect as Sbrk is
// called. This is a closer analogue of the host sbrk(2)/brk(2) primitive
// the original allocator assumes than the pure-Go memorySbrk: the heap's
// base address never changes, and growth is a cheap mprotect rather than a
// copy.
type mmapSbrk struct {
	region   []byte
	used     uintptr
	pageSize uintptr
}

// NewMmapSbrk reserves defaultMmapReserve bytes of virtual address space and
// returns an Sbrk backend over it.
func NewMmapSbrk() (Sbrk, error) {
	return NewMmapSbrkSize(defaultMmapReserve)
}

// NewMmapSbrkSize reserves size bytes of virtual address space and returns
// an Sbrk backend over it.
func NewMmapSbrkSize(size uintptr) (Sbrk, error) {
	region, err := unix.Mmap(-1, 0, int(size), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("alloc: reserving %d bytes of address space: %w", size, err)
	}
	return &mmapSbrk{
		region:   region,
		pageSize: uintptr(unix.Getpagesize()),
	}, nil
}

func (m *mmapSbrk) Sbrk(n uintptr) (unsafe.Pointer, error) {
	newUsed := m.used + n
	if newUsed > uintptr(len(m.region)) {
		return nil, fmt.Errorf("%w: reserved mmap region of %d bytes exhausted", ErrOutOfMemory, len(m.region))
	}

	committedThrough := roundUp(m.used, m.pageSize)
	neededThrough := roundUp(newUsed, m.pageSize)
	if neededThrough > committedThrough {
		extra := m.region[committedThrough:neededThrough]
		if err := unix.Mprotect(extra, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return nil, fmt.Errorf("alloc: committing %d bytes: %w", len(extra), err)
		}
	}

	p := unsafe.Pointer(&m.region[m.used])
	m.used = newUsed
	return p, nil
}

func roundUp(n, multiple uintptr) uintptr {
	return (n + multiple - 1) &^ (multiple - 1)
}
