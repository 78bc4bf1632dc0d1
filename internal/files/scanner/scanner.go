package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nyc-warehouse/snapload/internal/files/filesystem"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

var _ snapload.FileScanner = (*Scanner)(nil)

// Scanner discovers snapshot files directly under a source directory.
// Scanner is safe for concurrent use by multiple goroutines as long as
// the provided fsProvider is also thread-safe.
type Scanner struct {
	extension  string
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner matching extension on the OS filesystem.
// Panics if extension is empty.
func NewScanner(extension string) *Scanner {
	return NewScannerWithFS(extension, filesystem.NewOSFileSystem())
}

// NewScannerWithFS creates a new file scanner with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if extension is empty or fsProvider is nil.
func NewScannerWithFS(extension string, fsProvider filesystem.FileSystemProvider) *Scanner {
	if strings.TrimSpace(extension) == "" {
		panic("extension cannot be empty")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return &Scanner{
		extension:  strings.ToLower(extension),
		fsProvider: fsProvider,
	}
}

// Discover returns the paths of regular files in dir whose names end with
// the scanner's extension, compared case-insensitively. Symlinks are
// followed; directories never match. Results are sorted by name.
func (s *Scanner) Discover(dir string) ([]string, error) {
	entries, err := s.fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan directory %q: %w: %w", dir, snapload.ErrSourceUnavailable, err)
	}

	var files []string
	for _, entry := range entries {
		if !s.Matches(entry.Name()) {
			continue
		}

		full := filepath.Join(dir, entry.Name())
		if !entry.Mode().IsRegular() {
			// Only symlinks get a second look; a dangling link is skipped.
			if entry.Mode()&filesystem.ModeSymlink == 0 {
				continue
			}
			target, err := s.fsProvider.Stat(full)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		}
		files = append(files, full)
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether name carries the scanner's extension.
func (s *Scanner) Matches(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), s.extension)
}

// Extension returns the normalized extension, including the leading dot.
func (s *Scanner) Extension() string {
	return s.extension
}
