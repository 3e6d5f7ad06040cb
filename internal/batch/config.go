package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	ExpectedDigits int
	Debug          bool

	// Output
	OverlayDir string
	Format     string
	OutputFile string
	Precision  int

	// Parallel processing
	Workers         int
	ContinueOnError bool

	// File discovery
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress
	ShowProgress   bool
	Quiet          bool
	ProgressWriter io.Writer // os.Stderr when nil
}

// Result holds the result of batch processing.
type Result struct {
	Results     []pipeline.BatchResult
	Duration    time.Duration
	WorkerCount int
}

// Stats summarizes a batch run.
type Stats struct {
	TotalImages      int
	ProcessedImages  int
	FailedImages     int
	TotalDigits      int
	WorkerCount      int
	TotalDuration    time.Duration
	AveragePerImage  time.Duration
	ThroughputPerSec float64
}

// Stats computes processing statistics.
func (r *Result) Stats() Stats {
	s := Stats{
		TotalImages:   len(r.Results),
		WorkerCount:   r.WorkerCount,
		TotalDuration: r.Duration,
	}
	for _, br := range r.Results {
		if br.Err != nil || br.Result == nil {
			s.FailedImages++
			continue
		}
		s.ProcessedImages++
		s.TotalDigits += len(br.Result.Digits)
	}
	if s.TotalImages > 0 {
		s.AveragePerImage = r.Duration / time.Duration(s.TotalImages)
	}
	if r.Duration > 0 {
		s.ThroughputPerSec = float64(s.TotalImages) / r.Duration.Seconds()
	}
	return s
}

// FormatResults formats the batch results in the given format.
func (r *Result) FormatResults(format string, precision int) (string, error) {
	return formatBatchResults(r.Results, format, precision)
}

// SaveResults writes the formatted results to outputFile, or to stdout
// when outputFile is empty.
func (r *Result) SaveResults(stdout io.Writer, format, outputFile string, precision int, quiet bool) error {
	output, err := r.FormatResults(format, precision)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(stdout, "Results written to %s\n", outputFile)
		}
		return nil
	}
	_, _ = fmt.Fprint(stdout, output)
	return nil
}

// PrintStats prints processing statistics to w.
func (r *Result) PrintStats(w io.Writer, quiet bool) {
	if quiet {
		return
	}
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.TotalImages)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.ProcessedImages)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedImages)
	_, _ = fmt.Fprintf(w, "  Digits: %d\n", stats.TotalDigits)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
}
