package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyc-warehouse/snapload/internal/checksum"
	"github.com/nyc-warehouse/snapload/internal/normalize"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// Runner drives one load: discover the snapshot files, then read, normalize
// and ingest them one at a time, stopping at the first failed ingestion.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type Runner struct {
	scanner  snapload.FileScanner
	reader   snapload.DatasetReader
	ingestor snapload.Ingestor
	logger   snapload.Logger
	runID    uuid.UUID
}

// NewRunner creates a Runner with all dependencies injected.
// Panics on nil dependencies.
func NewRunner(
	scanner snapload.FileScanner,
	reader snapload.DatasetReader,
	ingestor snapload.Ingestor,
	logger snapload.Logger,
) *Runner {
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if reader == nil {
		panic("reader cannot be nil")
	}
	if ingestor == nil {
		panic("ingestor cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Runner{scanner: scanner, reader: reader, ingestor: ingestor, logger: logger}
}

// WithRunID returns a copy of the runner that stamps summaries with id
// instead of a fresh one.
func (r *Runner) WithRunID(id uuid.UUID) *Runner {
	clone := *r
	clone.runID = id
	return &clone
}

// Run processes every snapshot under cfg.SourceDir in discovery order.
//
// A discovery or read error is returned as is. An ingestion failure stops the
// loop: the remaining files are listed in Skipped and the error wraps
// snapload.ErrIngestionFailed. The summary is returned in every case.
func (r *Runner) Run(ctx context.Context, cfg snapload.LoadConfig) (*snapload.RunSummary, error) {
	summary := snapload.NewRunSummary()
	if r.runID != uuid.Nil {
		summary.RunID = r.runID
	}
	start := time.Now()
	defer func() { summary.Duration = time.Since(start) }()

	if err := cfg.Validate(); err != nil {
		return summary, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	files, err := r.scanner.Discover(cfg.SourceDir)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		r.logger.Info("No %s files found in %s", cfg.Extension, cfg.SourceDir)
		return summary, nil
	}
	r.logger.Verbose("Run %s: %d file(s) in %s", summary.RunID, len(files), cfg.SourceDir)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			summary.Skipped = append(summary.Skipped, files[i:]...)
			return summary, err
		}

		fr, err := r.processFile(ctx, path)
		if err != nil {
			summary.Skipped = append(summary.Skipped, files[i+1:]...)
			return summary, err
		}
		summary.Files = append(summary.Files, fr)

		if !fr.Result.Success {
			summary.Skipped = append(summary.Skipped, files[i+1:]...)
			return summary, fmt.Errorf("%s: %w: %w", path, snapload.ErrIngestionFailed, fr.Result.Err)
		}
	}

	r.logger.Verbose("Run %s: %d row(s) from %d file(s) in %s",
		summary.RunID, summary.TotalRows(), len(summary.Files), time.Since(start).Round(time.Millisecond))
	return summary, nil
}

// processFile keeps the dataset alive only for the duration of the call.
func (r *Runner) processFile(ctx context.Context, path string) (snapload.FileResult, error) {
	ds, err := r.reader.Read(ctx, path)
	if err != nil {
		return snapload.FileResult{Path: path}, err
	}
	defer ds.Release()

	normalize.Columns(ds)
	r.logger.Verbose("Normalized %d column(s) of %s (%s)", len(ds.Columns), path, checksum.Short(ds.Checksum))

	return snapload.FileResult{
		Path:     path,
		Checksum: ds.Checksum,
		Rows:     ds.NumRows(),
		Result:   r.ingestor.Ingest(ctx, ds),
	}, nil
}
