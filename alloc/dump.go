package alloc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// dumpOnFailure writes a block-by-block trace of the heap to h.dumpPath,
// guarded by a file lock so that concurrent test binaries sharing a scratch
// directory don't interleave writes. It is best-effort: a failure to take
// the lock or write the dump is ignored, and the original InvariantError is
// returned unchanged, because the heap is unrecoverable either way.
func (h *Heap) dumpOnFailure(cause *InvariantError) error {
	if h.dumpPath == "" || cause == nil {
		return cause
	}

	lock := flock.New(h.dumpPath + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !locked {
		return cause
	}
	defer lock.Unlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "heap corruption: %s\n", cause.Error())
	h.printHeap(&buf)

	_ = os.WriteFile(h.dumpPath, buf.Bytes(), 0o644)
	return cause
}

// CheckHeapAndDump behaves like CheckHeap(verbose, nil), but additionally
// writes a corruption snapshot via dumpOnFailure when Options.DumpPath was
// set and a violation is found.
func (h *Heap) CheckHeapAndDump(verbose int) error {
	err := h.CheckHeap(verbose, nil)
	if err == nil {
		return nil
	}
	invErr, ok := err.(*InvariantError)
	if !ok {
		return err
	}
	return h.dumpOnFailure(invErr)
}
