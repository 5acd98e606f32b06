package script_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtarnawska/segheap/alloc"
	"github.com/wtarnawska/segheap/script"
)

func newTestHeap(t *testing.T) *alloc.Heap {
	t.Helper()
	sbrk := alloc.NewMemorySbrk(1 << 20)
	h, err := alloc.New(sbrk, alloc.DefaultOptions())
	require.NoError(t, err)
	return h
}

func TestTokenize(t *testing.T) {
	toks, err := script.Tokenize(`realloc a 32 -> b`)
	require.NoError(t, err)
	assert.Equal(t, []string{"realloc", "a", "32", "->", "b"}, toks)
}

func TestRunBasicScript(t *testing.T) {
	h := newTestHeap(t)
	src := strings.NewReader(`
# a comment, then blank lines are skipped

malloc a 16
malloc b 4000
free a
realloc b 8000 -> c
check
`)
	res, err := script.Run(h, src)
	require.NoError(t, err)
	require.Len(t, res.Steps, 5)
	for _, s := range res.Steps {
		assert.NoErrorf(t, s.Err, "line %d: %s", s.Line, s.Text)
	}
}

func TestRunUnknownName(t *testing.T) {
	h := newTestHeap(t)
	_, err := script.Run(h, strings.NewReader("free nope\n"))
	assert.Error(t, err)
}

func TestRunUnknownOperation(t *testing.T) {
	h := newTestHeap(t)
	_, err := script.Run(h, strings.NewReader("frobnicate x\n"))
	assert.Error(t, err)
}

func TestFuzzCheckHeapAfterEveryOp(t *testing.T) {
	h := newTestHeap(t)
	res, err := script.Fuzz(h, 200, 42)
	require.NoError(t, err)
	assert.Len(t, res.Steps, 200)
	for _, s := range res.Steps {
		require.NoErrorf(t, s.Err, "op %d: %s", s.Line, s.Text)
	}
}

func TestFuzzDeterministicWithSameSeed(t *testing.T) {
	h1 := newTestHeap(t)
	h2 := newTestHeap(t)

	res1, err := script.Fuzz(h1, 50, 7)
	require.NoError(t, err)
	res2, err := script.Fuzz(h2, 50, 7)
	require.NoError(t, err)

	require.Len(t, res2.Steps, len(res1.Steps))
	for i := range res1.Steps {
		assert.Equal(t, res1.Steps[i].Text, res2.Steps[i].Text)
	}
}
