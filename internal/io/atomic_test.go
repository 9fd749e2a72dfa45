package io

import (
	"errors"
	stdio "io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "nested", "report.txt")

	require.NoError(t, WriteFileAtomic(testFile, []byte("first")))
	require.NoError(t, WriteFileAtomic(testFile, []byte("second")))

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(testFile))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteJSONAtomic(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, WriteJSONAtomic(testFile, map[string]int{"total_dates": 3}))

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_dates": 3}`, string(content))
}

func TestWriteStreamAtomicFailureKeepsOriginal(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "keep.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("original"), 0644))

	boom := errors.New("boom")
	err := WriteStreamAtomic(testFile, func(w stdio.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
