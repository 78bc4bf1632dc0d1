package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
// This provides compatibility with the fs.FS ecosystem while maintaining
// a stable local type for our abstraction layer.
type FileInfo = fs.FileInfo

// ModeSymlink marks symbolic links in FileInfo.Mode().
const ModeSymlink = fs.ModeSymlink

// File is an open snapshot file. Columnar readers need random access, so a
// File is seekable and readable at arbitrary offsets.
type File interface {
	io.ReaderAt
	io.Seeker
	io.Closer

	// Size returns the file length in bytes.
	Size() int64
}

// FileSystemProvider abstracts the filesystem operations used by discovery
// and dataset loading.
type FileSystemProvider interface {
	// ReadDir reads the directory entries at the given path, sorted by name.
	// Entries are not followed, so symlinks report their own mode.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path, following symlinks.
	Stat(path string) (FileInfo, error)

	// Open opens a file for random-access reading.
	Open(path string) (File, error)
}
