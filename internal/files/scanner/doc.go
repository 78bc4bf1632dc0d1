// Package scanner discovers snapshot files in a source directory.
//
// Discovery is flat: only direct children of the directory are considered.
// A file qualifies when its name ends with the configured extension
// (case-insensitive) and it is a regular file, possibly reached through a
// symlink.
//
// The scanner is filesystem-agnostic through the filesystem.FileSystemProvider
// interface, enabling both production use with the OS filesystem and testing
// with in-memory filesystems.
package scanner
