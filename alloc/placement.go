package alloc

// findFit performs a first-fit search over the free list, starting at the
// size class of reqSize and walking upward through progressively larger
// populated classes (segregated good-fit entry), then scanning forward
// within the list. Ties are broken by insertion order. Returns offNone if no
// free block is big enough.
func (h *Heap) findFit(reqSize uintptr) off {
	if h.freeList == offNone {
		return offNone
	}

	class := sizeClass(reqSize, h.opts.listnumMax)
	var bt off = offNone
	for c := class; bt == offNone && c <= h.opts.listnumMax; c *= 2 {
		bt = *h.classSlot(sizeClass(c, h.opts.listnumMax))
	}

	for bt != offNone {
		size := h.btSize(bt)
		switch {
		case size == reqSize:
			prevFree := h.btGetPrevFree(bt)
			h.flRemove(bt)
			flags := flagUsed
			if prevFree {
				flags |= flagPrevFree
			}
			h.btMake(bt, reqSize, flags)
			return bt
		case size > reqSize:
			h.splitBlock(bt, reqSize)
			prevFree := h.btGetPrevFree(bt)
			flags := flagUsed
			if prevFree {
				flags |= flagPrevFree
			}
			h.btMake(bt, reqSize, flags)
			h.flRemove(bt)
			return bt
		}
		bt = h.flNext(bt)
		if bt == h.freeList {
			break
		}
	}
	return offNone
}

// allocWithSbrk grows the heap to satisfy reqSize. Requests smaller than
// SbrkMin are rounded up to SbrkMin and the surplus is split off into a free
// block, amortizing heap-growth overhead for small allocations; larger
// requests extend the heap by exactly reqSize.
func (h *Heap) allocWithSbrk(reqSize uintptr) (off, error) {
	grow := reqSize
	small := reqSize < h.opts.sbrkMin
	if small {
		grow = h.opts.sbrkMin
	}

	ptr, err := h.sbrk.Sbrk(grow)
	if err != nil {
		return offNone, err
	}
	addr := uintptr(ptr)

	var prevWasFree bool
	if !h.empty() {
		prevWasFree = h.btFree(h.last)
	}

	if h.empty() {
		h.heapStartAddr = addr
	}
	bt := h.addrToOff(addr)

	h.btMake(bt, reqSize, flagUsed)
	if prevWasFree {
		h.btSetPrevFree(bt)
	} else {
		h.btClrPrevFree(bt)
	}
	h.last = bt
	h.heapEnd = bt + off(grow)

	if small {
		rest := h.btNext(bt)
		restSize := grow - reqSize
		h.btMake(rest, restSize, 0)
		h.btMake(h.btFooter(rest), restSize, 0)
		h.flAdd(rest)
		h.last = rest
	}

	return bt, nil
}
