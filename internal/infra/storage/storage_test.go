package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFileCreatesDirAndReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), PrivateFilePerm))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), PrivateFilePerm))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, PrivateFilePerm, info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestEnsureDirWithoutDirectory(t *testing.T) {
	t.Parallel()

	assert.NoError(t, EnsureDir("file.txt"))
}
