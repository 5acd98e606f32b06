//go:build !(linux || darwin)

package alloc

import "fmt"

// NewMmapSbrk is only available on linux and darwin, where golang.org/x/sys/unix
// exposes mmap/mprotect. Elsewhere, use NewMemorySbrk.
func NewMmapSbrk() (Sbrk, error) {
	return nil, fmt.Errorf("alloc: mmap-backed Sbrk is not supported on this platform")
}

// NewMmapSbrkSize is only available on linux and darwin; see NewMmapSbrk.
func NewMmapSbrkSize(size uintptr) (Sbrk, error) {
	return nil, fmt.Errorf("alloc: mmap-backed Sbrk is not supported on this platform")
}
