package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const TempPrefix = ".filekeeper.tmp-"

// Swapped out by tests to simulate a crash between write and rename.
var renameFile = os.Rename

// AtomicWrite writes r into a temp file next to dst and renames it over dst,
// so readers only ever observe the old file or the complete new one. Mode and
// ownership are applied to the temp file before the rename. A uid or gid of
// -1 is left unchanged.
func AtomicWrite(dst string, r io.Reader, perm os.FileMode, uid, gid int) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return 0, fmt.Errorf("failed to create parent dir: %w", err)
	}

	f, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to write: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if uid >= 0 || gid >= 0 {
		if err := os.Chown(tmp, uid, gid); err != nil {
			_ = os.Remove(tmp)
			return 0, fmt.Errorf("failed to chown temp file: %w", err)
		}
	}

	if err := renameFile(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to rename: %w", err)
	}

	syncDir(dir)
	return n, nil
}

// syncDir is best effort; not every platform can fsync a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}

	_ = d.Sync()
	_ = d.Close()
}

func IsTempFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), TempPrefix)
}
