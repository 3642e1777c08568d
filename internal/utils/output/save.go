package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/ferryroutes/pkg/models"
)

// Save writes rs to path, choosing the format from the file extension.
// ".csv" selects CSV; anything else is JSON.
func Save(rs models.ResultSet, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return SaveCSV(rs, path)
	default:
		return SaveJSON(rs, path)
	}
}

// writeFileAtomic replaces path with content. A reader never observes a
// partially written file; on failure the previous file is left untouched.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(content); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
