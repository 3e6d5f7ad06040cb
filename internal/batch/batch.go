// Package batch recognizes digits in many image files at once.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

// ErrNoImages is returned when discovery finds no image files.
var ErrNoImages = errors.New("no image files found")

// ProcessBatch discovers the images named by paths and recognizes them
// with pl. Without ContinueOnError the first failed image aborts the batch.
func ProcessBatch(ctx context.Context, pl *pipeline.Pipeline, paths []string, config *Config) (*Result, error) {
	files, err := discoverImageFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	inputs, err := readInputs(files, config.ExpectedDigits)
	if err != nil {
		return nil, err
	}

	var progress pipeline.ProgressCallback
	switch {
	case config.ShowProgress && !config.Quiet:
		w := config.ProgressWriter
		if w == nil {
			w = os.Stderr
		}
		progress = pipeline.NewConsoleProgressCallback(w, "Processing: ")
	case !config.Quiet:
		progress = pipeline.NewLogProgressCallback(nil, slog.LevelDebug).WithInterval(max(len(inputs)/10, 1))
	}

	start := time.Now()
	results, err := pl.RecognizeBatch(ctx, inputs, pipeline.BatchConfig{
		Workers:          config.Workers,
		Debug:            config.Debug,
		ProgressCallback: progress,
	})
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}
	duration := time.Since(start)

	if !config.ContinueOnError {
		for _, r := range results {
			if r.Err != nil {
				return nil, fmt.Errorf("recognition failed for %s: %w", r.Name, r.Err)
			}
		}
	}

	if config.OverlayDir != "" {
		cfg := pl.Config()
		for i, r := range results {
			if r.Result == nil {
				continue
			}
			if err := saveOverlay(inputs[i].Data, r, config.OverlayDir, cfg.OverlayBoxColor, cfg.OverlayLabelColor); err != nil {
				slog.Warn("Failed to write overlay", "file", r.Name, "error", err)
			}
		}
	}

	workers := config.Workers
	if workers <= 0 {
		workers = pl.Config().Workers
	}
	return &Result{
		Results:     results,
		Duration:    duration,
		WorkerCount: min(workers, len(results)),
	}, nil
}

// readInputs loads the raw bytes of every file. Unreadable files fail the
// whole batch since discovery has just seen them.
func readInputs(files []string, expectedDigits int) ([]pipeline.Input, error) {
	inputs := make([]pipeline.Input, len(files))
	for i, path := range files {
		data, _, err := utils.ReadImageFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs[i] = pipeline.Input{Name: path, Data: data, ExpectedDigits: expectedDigits}
	}
	return inputs, nil
}
