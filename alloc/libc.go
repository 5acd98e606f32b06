package alloc

// This file intentionally contains no code.
//
// A libc-style driver harness would alias malloc/free/realloc/calloc to
// Heap methods via cgo "//export" directives, the same way
// arch_tinygowasm_malloc.go overrides wasi-libc's allocator:
//
//	//export malloc
//	func libc_malloc(size uintptr) unsafe.Pointer { ... }
//
// Building such a shim -- symbol aliasing, cgo build constraints, and the
// testing loop that drives it -- is out of scope here; the driver harness is
// an external collaborator, not part of the allocator engine. Heap's
// Malloc/Free/Realloc/Calloc methods are the seam such a shim would call
// into.
