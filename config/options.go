// Package config defines the tunables a Heap is constructed with, and the
// YAML file format used to load them, in the same style as the compiler's
// own compileopts.Options: a flat struct plus a Verify method that rejects
// invalid combinations before they reach the allocator.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

var validBackendOptions = []string{"memory", "mmap"}

// Options holds the construction-time parameters for an alloc.Heap.
type Options struct {
	// Alignment is the payload alignment in bytes. Must be a power of two.
	Alignment uintptr `yaml:"alignment"`
	// SbrkMin is the minimum amortized growth requested from the backend
	// when the heap has to grow for a small allocation.
	SbrkMin uintptr `yaml:"sbrk_min"`
	// ListnumMax is the size-class ceiling; requests with a class above
	// this fall into the catch-all "more" class.
	ListnumMax uintptr `yaml:"listnum_max"`
	// Backend selects the Sbrk implementation: "memory" (a preallocated
	// Go slice) or "mmap" (a reserved virtual range committed with
	// mprotect, linux/darwin only).
	Backend string `yaml:"backend"`
	// MmapReserve is the virtual range reserved up front when
	// Backend == "mmap", and the arena capacity when Backend == "memory".
	// Zero means use the package default for that backend.
	MmapReserve uintptr `yaml:"mmap_reserve"`
	// DumpPath, if set, is where CheckHeapAndDump writes a corruption
	// snapshot when an invariant check fails.
	DumpPath string `yaml:"dump_path"`
	// Verbose controls CheckHeap's printing: 0 silent, 1 print-then-verify,
	// 2 print-only.
	Verbose int `yaml:"verbose"`
}

// Default returns the options a bare alloc.DefaultOptions() call would use,
// wired through the in-memory backend.
func Default() *Options {
	return &Options{
		Alignment:  16,
		SbrkMin:    512,
		ListnumMax: 8192,
		Backend:    "memory",
		Verbose:    0,
	}
}

// Load reads a YAML file at path and layers it onto Default(). Fields
// omitted from the file keep their default value.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := opts.Verify(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return opts, nil
}

// Verify rejects option combinations the allocator cannot act on.
func (o *Options) Verify() error {
	if o.Alignment == 0 || o.Alignment&(o.Alignment-1) != 0 {
		return fmt.Errorf("invalid alignment %d: must be a power of two", o.Alignment)
	}
	if o.SbrkMin == 0 {
		return fmt.Errorf("invalid sbrk_min %d: must be nonzero", o.SbrkMin)
	}
	if o.ListnumMax == 0 || o.ListnumMax&(o.ListnumMax-1) != 0 {
		return fmt.Errorf("invalid listnum_max %d: must be a power of two", o.ListnumMax)
	}
	if o.Backend != "" && !isInArray(validBackendOptions, o.Backend) {
		return fmt.Errorf(`invalid backend option '%s': valid values are %s`,
			o.Backend, strings.Join(validBackendOptions, ", "))
	}
	if o.Verbose < 0 {
		return fmt.Errorf("invalid verbose level %d: must be >= 0", o.Verbose)
	}
	return nil
}

func isInArray(arr []string, item string) bool {
	for _, i := range arr {
		if i == item {
			return true
		}
	}
	return false
}
