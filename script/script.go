// Package script implements a tiny line-oriented language for driving an
// alloc.Heap from a text file or a fuzz loop, playing the role a grading
// driver would without reproducing that driver itself:
//
//	malloc a 16
//	malloc b 4000
//	free a
//	realloc b 8000 -> c
//	calloc d 10 8
//	check
package script

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"github.com/google/shlex"

	"github.com/wtarnawska/segheap/alloc"
)

// Result accumulates what happened while running a script: one Step per
// non-blank, non-comment line.
type Result struct {
	Steps []Step
}

// Step records the outcome of a single script line.
type Step struct {
	Line int
	Text string
	Err  error
}

// Tokenize splits line the way a POSIX shell would, via
// github.com/google/shlex, so operands can later be quoted.
func Tokenize(line string) ([]string, error) {
	return shlex.Split(line)
}

// Run interprets every line read from r against h, tracking named live
// allocations in a map, and calls h.CheckHeap after each operation. Run
// stops and returns the accumulated Result (with the failing Step's Err
// set) as soon as a line fails; it does not stop the caller from
// inspecting prior steps.
func Run(h *alloc.Heap, r io.Reader) (*Result, error) {
	named := map[string]unsafe.Pointer{}
	res := &Result{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		err := runLine(h, named, text)
		res.Steps = append(res.Steps, Step{Line: lineNo, Text: text, Err: err})
		if err != nil {
			return res, fmt.Errorf("script: line %d: %q: %w", lineNo, text, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("script: reading input: %w", err)
	}
	return res, nil
}

func runLine(h *alloc.Heap, named map[string]unsafe.Pointer, text string) error {
	tokens, err := Tokenize(text)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	switch tokens[0] {
	case "malloc":
		if len(tokens) != 3 {
			return fmt.Errorf("malloc wants <name> <size>, got %v", tokens[1:])
		}
		size, err := strconv.ParseUint(tokens[2], 10, 64)
		if err != nil {
			return fmt.Errorf("malloc size: %w", err)
		}
		p, err := h.Malloc(uintptr(size))
		if err != nil {
			return err
		}
		named[tokens[1]] = p

	case "calloc":
		if len(tokens) != 4 {
			return fmt.Errorf("calloc wants <name> <n> <size>, got %v", tokens[1:])
		}
		n, err := strconv.ParseUint(tokens[2], 10, 64)
		if err != nil {
			return fmt.Errorf("calloc n: %w", err)
		}
		size, err := strconv.ParseUint(tokens[3], 10, 64)
		if err != nil {
			return fmt.Errorf("calloc size: %w", err)
		}
		p, err := h.Calloc(uintptr(n), uintptr(size))
		if err != nil {
			return err
		}
		named[tokens[1]] = p

	case "free":
		if len(tokens) != 2 {
			return fmt.Errorf("free wants <name>, got %v", tokens[1:])
		}
		p, ok := named[tokens[1]]
		if !ok {
			return fmt.Errorf("free: unknown name %q", tokens[1])
		}
		h.Free(p)
		delete(named, tokens[1])

	case "realloc":
		// realloc <name> <size> -> <newname>
		if len(tokens) != 5 || tokens[3] != "->" {
			return fmt.Errorf("realloc wants <name> <size> -> <newname>, got %v", tokens[1:])
		}
		p, ok := named[tokens[1]]
		if !ok {
			return fmt.Errorf("realloc: unknown name %q", tokens[1])
		}
		size, err := strconv.ParseUint(tokens[2], 10, 64)
		if err != nil {
			return fmt.Errorf("realloc size: %w", err)
		}
		q, err := h.Realloc(p, uintptr(size))
		if err != nil {
			return err
		}
		delete(named, tokens[1])
		named[tokens[4]] = q

	case "check":
		if len(tokens) != 1 {
			return fmt.Errorf("check takes no arguments, got %v", tokens[1:])
		}

	default:
		return fmt.Errorf("unknown operation %q", tokens[0])
	}

	return h.CheckHeap(0, nil)
}

// Fuzz drives ops random malloc/free/realloc/calloc calls against h, biasing
// sizes toward both tiny requests and requests that straddle a typical
// SbrkMin, and calls h.CheckHeap after every operation. It stops at the
// first invariant violation or allocation failure and returns the
// accumulated Result with that failure recorded in its final Step.
func Fuzz(h *alloc.Heap, ops int, seed int64) (*Result, error) {
	rng := rand.New(rand.NewSource(seed))
	named := map[string]unsafe.Pointer{}
	res := &Result{}

	names := func() []string {
		ks := make([]string, 0, len(named))
		for k := range named {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		return ks
	}
	randSize := func() uintptr {
		if rng.Intn(2) == 0 {
			return uintptr(1 + rng.Intn(64))
		}
		return uintptr(400 + rng.Intn(4000))
	}
	nextName := func(i int) string { return fmt.Sprintf("f%d", i) }

	for i := 0; i < ops; i++ {
		var text string
		var err error

		live := names()
		op := rng.Intn(4)
		if len(live) == 0 {
			op = 0 // nothing to free/realloc yet, force a malloc
		}

		switch op {
		case 0:
			name := nextName(i)
			size := randSize()
			text = fmt.Sprintf("malloc %s %d", name, size)
			var p unsafe.Pointer
			p, err = h.Malloc(size)
			if err == nil {
				named[name] = p
			}
		case 1:
			name := live[rng.Intn(len(live))]
			text = fmt.Sprintf("free %s", name)
			h.Free(named[name])
			delete(named, name)
		case 2:
			name := live[rng.Intn(len(live))]
			size := randSize()
			newName := nextName(i)
			text = fmt.Sprintf("realloc %s %d -> %s", name, size, newName)
			var q unsafe.Pointer
			q, err = h.Realloc(named[name], size)
			if err == nil {
				delete(named, name)
				named[newName] = q
			}
		case 3:
			name := nextName(i)
			n, size := uintptr(1+rng.Intn(8)), randSize()
			text = fmt.Sprintf("calloc %s %d %d", name, n, size)
			var p unsafe.Pointer
			p, err = h.Calloc(n, size)
			if err == nil {
				named[name] = p
			}
		}

		if err == nil {
			err = h.CheckHeap(0, nil)
		}
		res.Steps = append(res.Steps, Step{Line: i + 1, Text: text, Err: err})
		if err != nil {
			return res, fmt.Errorf("script: fuzz op %d: %q: %w", i+1, text, err)
		}
	}
	return res, nil
}
