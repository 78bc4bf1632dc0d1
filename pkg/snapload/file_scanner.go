package snapload

import "context"

// FileScanner discovers snapshot files in a source directory.
type FileScanner interface {
	// Discover lists regular files directly under dir whose names end with
	// the scanner's extension. It does not recurse.
	Discover(dir string) ([]string, error)
}

// DatasetReader loads one snapshot file fully into memory.
type DatasetReader interface {
	Read(ctx context.Context, path string) (*Dataset, error)
}
