// Package archive retires a library database so the next start begins with
// an empty library.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// sidecars are SQLite files that belong to the database and move with it
var sidecars = []string{"-wal", "-shm", "-journal"}

// ArchiveLibrary moves the library database into an "archive" directory next
// to it, named after the database with a timestamp, and returns the new path
func ArchiveLibrary(dbPath string) (string, error) {
	info, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("library database does not exist: %s", dbPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat library database: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("library path is a directory: %s", dbPath)
	}

	archiveDir := filepath.Join(filepath.Dir(dbPath), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(dbPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405"), ext))
	if _, err := os.Stat(archivePath); err == nil {
		// Same second as an earlier archive
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405.000000"), ext))
	}

	if err := os.Rename(dbPath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive library database: %w", err)
	}

	for _, suffix := range sidecars {
		if _, err := os.Stat(dbPath + suffix); err == nil {
			if err := os.Rename(dbPath+suffix, archivePath+suffix); err != nil {
				return archivePath, fmt.Errorf("failed to archive %s: %w", filepath.Base(dbPath+suffix), err)
			}
		}
	}

	return archivePath, nil
}
