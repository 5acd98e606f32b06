package alloc

// splitBlock splits the free block at bt (of size >= size) into a `size`-
// byte prefix retaining bt's flags and a (|bt|-size)-byte suffix. The
// suffix also gets PREVFREE set on its own header; callers that then mark
// the prefix USED clear that bit on the suffix. Both pieces end up on the
// free list; bt itself is removed first, matching the source's split_block.
func (h *Heap) splitBlock(bt off, size uintptr) off {
	h.flRemove(bt)
	oldSize := h.btSize(bt)
	flags := h.btFlags(bt)
	h.btMake(bt, size, flags)

	p := h.btNext(bt)
	h.btMake(p, oldSize-size, flags|flagPrevFree)
	h.btMake(h.btFooter(p), oldSize-size, flags|flagPrevFree)
	if bt == h.last {
		h.last = p
	}

	h.btMake(h.btFooter(bt), size, flags)
	h.flAdd(bt)
	h.flAdd(p)
	return p
}

// mergeBlocks merges two physically adjacent blocks a immediately followed
// by b into a single block at a's address, retaining a's flags. Callers
// remove both a and b from the free list (as appropriate) before calling
// this.
func (h *Heap) mergeBlocks(a, b off) {
	size := h.btSize(a) + h.btSize(b)
	flags := h.btFlags(a)
	footer := a + off(size) - wordSize
	h.btMake(a, size, flags)
	h.btMake(footer, size, flags)
	if b == h.last {
		h.last = a
	}
}
