// Package checksum fingerprints snapshot files.
//
// The fingerprint is the SHA-256 of the exact file bytes. It is recorded for
// every loaded dataset so a run summary identifies which snapshot was
// appended, even when files are renamed between runs.
//
// # Example Usage
//
//	calculator := checksum.New()
//	sum, err := calculator.CalculateReader(io.NewSectionReader(f, 0, f.Size()))
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
