// Package atomicfile replaces small state files (config.toml, the last query)
// so that a reader sees either the old content or the new, never a partial
// write.
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const defaultMode os.FileMode = 0o644

// Write replaces path with whatever encode writes. The parent directory is
// created when missing, and an existing file keeps its mode. If encode or
// any later step fails, the previous file is left untouched.
func Write(path string, encode func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	mode := defaultMode
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	done := false
	defer func() {
		if !done {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := encode(tmp); err != nil {
		return err
	}
	_ = tmp.Chmod(mode)
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := replace(tmpPath, path); err != nil {
		return err
	}
	done = true
	return nil
}

// WriteFile is Write for content that is already in memory.
func WriteFile(path string, data []byte) error {
	return Write(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// replace renames tmp over path. Windows refuses to rename onto an existing
// file, so the target is removed and the rename retried once.
func replace(tmp, path string) error {
	err := os.Rename(tmp, path)
	if err == nil {
		return nil
	}
	_ = os.Remove(path)
	if os.Rename(tmp, path) != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
