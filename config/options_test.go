package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtarnawska/segheap/config"
)

func TestDefaultVerifies(t *testing.T) {
	assert.NoError(t, config.Default().Verify())
}

func TestVerifyRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*config.Options)
	}{
		{"zero alignment", func(o *config.Options) { o.Alignment = 0 }},
		{"non-power-of-two alignment", func(o *config.Options) { o.Alignment = 24 }},
		{"zero sbrk_min", func(o *config.Options) { o.SbrkMin = 0 }},
		{"non-power-of-two listnum_max", func(o *config.Options) { o.ListnumMax = 100 }},
		{"unknown backend", func(o *config.Options) { o.Backend = "disk" }},
		{"negative verbose", func(o *config.Options) { o.Verbose = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := config.Default()
			tt.mut(o)
			assert.Error(t, o.Verify())
		})
	}
}

func TestLoadLayersOntoDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segheap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sbrk_min: 1024\nverbose: 2\n"), 0o644))

	o, err := config.Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 1024, o.SbrkMin)
	assert.Equal(t, 2, o.Verbose)
	// Untouched fields keep their default value.
	assert.EqualValues(t, 16, o.Alignment)
	assert.Equal(t, "memory", o.Backend)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segheap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: disk\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewHeapMemoryBackend(t *testing.T) {
	o := config.Default()
	h, err := o.NewHeap()
	require.NoError(t, err)
	require.NotNil(t, h)

	p, err := h.Malloc(64)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
