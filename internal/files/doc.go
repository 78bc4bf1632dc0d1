// Package files provides snapshot file handling organized into sub-packages.
//
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Snapshot discovery by extension
//   - loader: Parquet decoding into in-memory datasets
//
// # Usage
//
//	import (
//	    "github.com/nyc-warehouse/snapload/internal/files/loader"
//	    "github.com/nyc-warehouse/snapload/internal/files/scanner"
//	)
//
//	paths, err := scanner.NewScanner(".parquet").Discover("data/raw")
//
//	reader := loader.NewParquetLoader(logger)
//	ds, err := reader.Read(ctx, paths[0])
//	defer ds.Release()
package files
