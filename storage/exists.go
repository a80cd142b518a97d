package storage

import (
	"os"
	"path/filepath"
)

// markerFile is created by the storage engine in every initialized directory.
const markerFile = "MANIFEST"

// Exists reports whether path holds a previously written store.
// A missing or empty directory is not a store.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(path, markerFile))
	return err == nil && !info.IsDir()
}
