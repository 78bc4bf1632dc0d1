package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_ReadDirListsDirectChildrenSorted(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("raw/b.parquet", []byte("b"))
	mfs.AddFile("raw/a.parquet", []byte("a"))
	mfs.AddFile("raw/nested/c.parquet", []byte("c"))

	entries, err := mfs.ReadDir("raw")
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{"a.parquet", "b.parquet", "nested"}, names)
	assert.True(t, entries[2].IsDir())
}

func TestMemoryFileSystem_ReadDirMissing(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")

	_, err := mfs.ReadDir("/nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_ReadDirOnFile(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("x.parquet", []byte("x"))

	_, err := mfs.ReadDir("x.parquet")
	assert.Error(t, err)
}

func TestMemoryFileSystem_StatFollowsSymlinks(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("real.parquet", []byte("1234"))
	mfs.AddSymlink("link.parquet", "real.parquet")
	mfs.AddSymlink("dangling.parquet", "missing.parquet")

	info, err := mfs.Stat("link.parquet")
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Equal(t, int64(4), info.Size())

	_, err = mfs.Stat("dangling.parquet")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	entries, err := mfs.ReadDir(".")
	require.NoError(t, err)
	for _, e := range entries {
		if e.Name() == "link.parquet" {
			assert.NotZero(t, e.Mode()&fs.ModeSymlink, "ReadDir does not follow links")
		}
	}
}

func TestMemoryFileSystem_OpenRandomAccess(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("f.bin", []byte("hello world"))

	f, err := mfs.Open("/data/f.bin")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(11), f.Size())

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf))

	pos, err := f.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
}

func TestMemoryFileSystem_OpenDirectoryFails(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddDir("sub.parquet")

	_, err := mfs.Open("sub.parquet")
	assert.Error(t, err)
}
