package util

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct {
	data []byte
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("device went away")
	}
	r.sent = true
	return copy(p, r.data), nil
}

func tempEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if IsTempFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestAtomicWrite_CreatesParentAndSetsMode(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "config.json")

	n, err := AtomicWrite(dst, bytes.NewReader([]byte(`{"key":"v1"}`)), 0600, -1, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"key":"v1"}`, string(got))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	parent, err := os.Stat(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), parent.Mode().Perm())
	assert.Empty(t, tempEntries(t, filepath.Dir(dst)))
}

func TestAtomicWrite_ReplacesExisting(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(dst, []byte(`{"tampered":true}`), 0644))

	_, err := AtomicWrite(dst, bytes.NewReader([]byte("fresh")), 0640, -1, -1)
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestAtomicWrite_FailedCopyKeepsPreviousContent(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(dst, []byte("previous"), 0600))

	_, err := AtomicWrite(dst, &failingReader{data: []byte("partial")}, 0600, -1, -1)
	require.Error(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
	assert.Empty(t, tempEntries(t, dir))
}

func TestAtomicWrite_CrashBeforeRename(t *testing.T) {
	orig := renameFile
	t.Cleanup(func() { renameFile = orig })

	var renamedFrom string
	renameFile = func(from, _ string) error {
		renamedFrom = from
		return errors.New("simulated crash")
	}

	t.Run("existing target", func(t *testing.T) {
		dir := t.TempDir()
		dst := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(dst, []byte("previous"), 0600))

		_, err := AtomicWrite(dst, bytes.NewReader(bytes.Repeat([]byte("x"), 1<<16)), 0600, -1, -1)
		require.ErrorContains(t, err, "simulated crash")
		assert.True(t, IsTempFile(renamedFrom))

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "previous", string(got))
		assert.Empty(t, tempEntries(t, dir))
	})

	t.Run("absent target", func(t *testing.T) {
		dir := t.TempDir()
		dst := filepath.Join(dir, "config.json")

		_, err := AtomicWrite(dst, bytes.NewReader([]byte("new")), 0600, -1, -1)
		require.Error(t, err)

		_, err = os.Stat(dst)
		assert.True(t, os.IsNotExist(err))
		assert.Empty(t, tempEntries(t, dir))
	})
}

func TestAtomicWrite_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	_, err := AtomicWrite(filepath.Join(blocker, "config.json"), bytes.NewReader(nil), 0600, -1, -1)
	require.ErrorContains(t, err, "failed to create parent dir")
}

func TestChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	sum, err := FileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, Checksum([]byte("hello")), sum)
	assert.Len(t, sum, 16)
	assert.NotEqual(t, Checksum([]byte("hello!")), sum)

	_, err = FileChecksum(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
