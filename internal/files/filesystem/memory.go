package filesystem

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ FileSystemProvider = (*MemoryFileSystem)(nil)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	info    *memoryFileInfo
	content []byte
	target  string // symlink target, absolute
}

// MemoryFileSystem implements FileSystemProvider for in-memory testing
type MemoryFileSystem struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry // absolute path -> entry
	root    string
}

// NewMemoryFileSystem creates a new in-memory filesystem.
// The root path is normalized to use forward slashes for virtual filesystem consistency.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))

	mfs := &MemoryFileSystem{
		entries: make(map[string]*memoryEntry),
		root:    root,
	}
	mfs.entries[root] = dirEntry(root)
	return mfs
}

func dirEntry(p string) *memoryEntry {
	return &memoryEntry{info: &memoryFileInfo{
		name:    path.Base(p),
		mode:    0755 | fs.ModeDir,
		modTime: time.Now(),
	}}
}

// AddFile adds a regular file to the in-memory filesystem
func (mfs *MemoryFileSystem) AddFile(filePath string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	abs := mfs.abs(filePath)
	mfs.entries[abs] = &memoryEntry{
		content: content,
		info: &memoryFileInfo{
			name:    path.Base(abs),
			size:    int64(len(content)),
			mode:    0644,
			modTime: time.Now(),
		},
	}
	mfs.ensureDirectoriesExist(abs)
}

// AddDir adds an empty directory.
func (mfs *MemoryFileSystem) AddDir(dirPath string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	abs := mfs.abs(dirPath)
	mfs.entries[abs] = dirEntry(abs)
	mfs.ensureDirectoriesExist(abs)
}

// AddSymlink adds a symbolic link at linkPath pointing to target.
func (mfs *MemoryFileSystem) AddSymlink(linkPath, target string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	abs := mfs.abs(linkPath)
	mfs.entries[abs] = &memoryEntry{
		target: mfs.abs(target),
		info: &memoryFileInfo{
			name:    path.Base(abs),
			mode:    0777 | fs.ModeSymlink,
			modTime: time.Now(),
		},
	}
	mfs.ensureDirectoriesExist(abs)
}

// ensureDirectoriesExist creates directory entries for all parent directories
func (mfs *MemoryFileSystem) ensureDirectoriesExist(p string) {
	dir := path.Dir(p)
	if dir == "." || dir == p {
		return
	}
	if _, exists := mfs.entries[dir]; exists {
		return
	}
	mfs.entries[dir] = dirEntry(dir)
	mfs.ensureDirectoriesExist(dir)
}

// abs resolves p against the virtual root.
func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mfs.root
	}
	if !path.IsAbs(p) {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

// resolve follows symlinks up to a fixed depth.
func (mfs *MemoryFileSystem) resolve(p string) (*memoryEntry, error) {
	abs := mfs.abs(p)
	for range 8 {
		e, ok := mfs.entries[abs]
		if !ok {
			return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
		}
		if e.info.mode&fs.ModeSymlink == 0 {
			return e, nil
		}
		abs = e.target
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fmt.Errorf("too many levels of symbolic links")}
}

// ReadDir implements FileSystemProvider.ReadDir
func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	dir, err := mfs.resolve(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if !dir.info.IsDir() {
		return nil, fmt.Errorf("failed to read directory: %s is not a directory", dirPath)
	}

	base := mfs.abs(dirPath)
	var result []FileInfo
	for p, e := range mfs.entries {
		if p != base && path.Dir(p) == base {
			result = append(result, e.info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

// Stat implements FileSystemProvider.Stat
func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	e, err := mfs.resolve(statPath)
	if err != nil {
		return nil, err
	}
	return e.info, nil
}

// Open implements FileSystemProvider.Open
func (mfs *MemoryFileSystem) Open(filePath string) (File, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	e, err := mfs.resolve(filePath)
	if err != nil {
		return nil, err
	}
	if e.info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return &memoryFile{Reader: bytes.NewReader(e.content)}, nil
}

// Root returns the virtual root directory.
func (mfs *MemoryFileSystem) Root() string { return mfs.root }

// String lists the entries for debugging test failures.
func (mfs *MemoryFileSystem) String() string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	paths := make([]string, 0, len(mfs.entries))
	for p := range mfs.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return strings.Join(paths, "\n")
}

type memoryFile struct {
	*bytes.Reader
}

func (f *memoryFile) Close() error { return nil }
