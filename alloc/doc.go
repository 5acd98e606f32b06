// Package alloc implements a segregated free-list allocator over a single
// contiguous, monotonically-growing byte arena obtained from a host-provided
// Sbrk. It serves the classical four-call interface (Malloc, Free, Realloc,
// Calloc) used by libc-style allocators.
//
// The allocator is a textbook boundary-tag implementation, heavily inspired
// by CS:APP-style malloc labs. Every block carries a header (and, if free, a
// footer) packing its size and two flag bits: USED and PREVFREE. The
// PREVFREE bit lets allocated blocks omit their footer entirely: a block
// only needs to look at its predecessor's footer when its own header says
// the predecessor is free.
//
// Free blocks are threaded onto one circular doubly-linked free list. A
// fixed set of class-head pointers (one per power-of-two size class) mark
// the first block of each class within that single list, giving a segregated
// good-fit entry point without the bookkeeping of separate per-class list
// heads.
//
// Links and cursors are stored as offsets relative to the first block
// (heapStart), not as raw pointers, matching the 32-bit-link optimization
// described by the allocator this package is modeled on. See tag.go and
// freelist.go for the bit-packing and linked-list primitives, placement.go
// for the find-fit and heap-growth policy, and check.go for the invariant
// verifier.
//
// This allocator is strictly single-threaded. A *Heap must not be used from
// more than one goroutine at a time.
package alloc
