// Package filesystem provides the filesystem abstraction used to discover
// and open snapshot files.
//
// Key interfaces:
//   - FileSystemProvider: Directory listing, stat, and random-access open
//   - File: An open file usable by columnar readers (ReaderAt + Seeker)
//
// Implementations:
//   - OSFileSystem: Production implementation using OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing
package filesystem
