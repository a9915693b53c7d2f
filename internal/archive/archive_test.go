package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveLibrary(t *testing.T) {
	tmpDir := t.TempDir()

	dbPath := filepath.Join(tmpDir, "library.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0644))

	archivePath, err := ArchiveLibrary(dbPath)
	require.NoError(t, err)

	assert.NoFileExists(t, dbPath)
	assert.NoFileExists(t, dbPath+"-wal")

	assert.Equal(t, filepath.Join(tmpDir, "archive"), filepath.Dir(archivePath))

	name := filepath.Base(archivePath)
	assert.Regexp(t, `^library-.*\.db$`, name)

	content, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(content))

	assert.FileExists(t, archivePath+"-wal")
}

func TestArchiveLibraryMissing(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ArchiveLibrary(filepath.Join(tmpDir, "missing.db"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestArchiveLibraryDirectory(t *testing.T) {
	_, err := ArchiveLibrary(t.TempDir())
	assert.Error(t, err)
}

func TestArchiveLibraryMultipleTimes(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "library.db")

	for i := 0; i < 2; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0644))

		if i == 1 {
			time.Sleep(10 * time.Millisecond)
		}

		_, err := ArchiveLibrary(dbPath)
		require.NoError(t, err, "iteration %d", i)
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, "archive"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].Name(), entries[1].Name())
}
