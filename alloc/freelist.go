package alloc

// The free list is a single circular doubly-linked list threading every
// free block together. Forward/back links are stored as heap-relative
// offsets in the first two payload words of the block (flNext at payload
// word 0, flPrev at payload word 1) rather than absolute pointers, so a
// link costs one word (4 bytes) regardless of the host's pointer width. A
// link of 0 denotes heapStart itself.
//
// Class-head pointers (Heap.classHead) are not a second list: each is
// simply the address of the first block of that size class within this one
// list, letting find_fit jump straight to a good-fit entry point without a
// second set of list pointers to maintain.

// flNext returns the free-list successor of bt.
func (h *Heap) flNext(bt off) off {
	return off(h.word(h.btPayload(bt)))
}

// flPrev returns the free-list predecessor of bt.
func (h *Heap) flPrev(bt off) off {
	return off(h.word(h.btPayload(bt) + wordSize))
}

// flSetNext sets the free-list successor link of bt.
func (h *Heap) flSetNext(bt, next off) {
	h.setWord(h.btPayload(bt), uint32(next))
}

// flSetPrev sets the free-list predecessor link of bt.
func (h *Heap) flSetPrev(bt, prev off) {
	h.setWord(h.btPayload(bt)+wordSize, uint32(prev))
}

// flSearch walks the circular free list once, reporting whether bt appears
// on it. Used only by the heap checker.
func (h *Heap) flSearch(bt off) bool {
	if h.freeList == offNone {
		return false
	}
	i := h.freeList
	for {
		if i == bt {
			return true
		}
		i = h.flNext(i)
		if i == h.freeList {
			return false
		}
	}
}

// flAdd inserts bt into the free list, maintaining the weak ascending-by-
// class ordering (invariant 8): it is placed at the front of its own size
// class's run if one exists, else immediately before the first block of the
// next larger populated class, else at the tail of the whole list.
func (h *Heap) flAdd(bt off) {
	size := h.btSize(bt)
	class := sizeClass(size, h.opts.listnumMax)
	slot := h.classSlot(class)

	if h.freeList == offNone {
		h.flSetNext(bt, bt)
		h.flSetPrev(bt, bt)
		h.freeList = bt
		*slot = bt
		return
	}

	var next off
	if *slot != offNone {
		// Put the block at the front of its own size class's run.
		next = *slot
	} else {
		// No block of this class yet: insert before the first block of the
		// next larger populated class, if any.
		next = offNone
		for c := class; next == offNone && c <= h.opts.listnumMax; c *= 2 {
			next = *h.classSlot(sizeClass(c, h.opts.listnumMax))
		}
		if next == offNone {
			// No larger class populated either: tail of the whole list.
			next = h.freeList
		}
	}

	prev := h.flPrev(next)
	h.flSetNext(prev, bt)
	h.flSetNext(bt, next)
	h.flSetPrev(bt, prev)
	h.flSetPrev(next, bt)
	*slot = bt

	if class <= sizeClass(h.btSize(h.freeList), h.opts.listnumMax) {
		h.freeList = bt
	}
}

// flRemove removes bt from the free list, fixing up its size class's head
// pointer: if bt was the head, the head becomes the next list node if that
// node belongs to the same class, else nil (invariant 9).
func (h *Heap) flRemove(bt off) {
	if h.freeList == offNone {
		return
	}
	size := h.btSize(bt)
	class := sizeClass(size, h.opts.listnumMax)
	slot := h.classSlot(class)

	if h.flNext(bt) == bt {
		// Removing the last block on the list.
		h.freeList = offNone
		*slot = offNone
		return
	}

	prev := h.flPrev(bt)
	next := h.flNext(bt)
	h.flSetPrev(next, prev)
	h.flSetNext(prev, next)
	if h.freeList == bt {
		h.freeList = next
	}
	if *slot == bt {
		if sizeClass(h.btSize(next), h.opts.listnumMax) == class {
			*slot = next
		} else {
			*slot = offNone
		}
	}
}

func (h *Heap) classSlot(class uintptr) *off {
	return &h.classHead[classIndex(class)]
}
