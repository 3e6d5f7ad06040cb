package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/MeKo-Tech/digitread/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCommand(a *app) *cobra.Command {
	var (
		expectedDigits int
		include        []string
		exclude        []string
		progress       bool
		quiet          bool
		stats          bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file|dir...>",
		Short: "Recognize digits in many images in parallel",
		Long: `Recognize the digit strings of many image files with a pool of workers.
Directories are scanned for supported image files.

Examples:
  digitread batch *.png
  digitread batch meters/ --recursive --workers 8
  digitread batch meters/ --include '*.jpg' --format csv --output readings.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			pl, _, err := a.newPipeline()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := batch.ProcessBatch(ctx, pl, args, &batch.Config{
				ExpectedDigits:  expectedDigits,
				Debug:           cfg.Pipeline.Debug,
				OverlayDir:      cfg.Output.OverlayDir,
				Format:          cfg.Output.Format,
				OutputFile:      cfg.Output.File,
				Precision:       cfg.Output.ConfidencePrecision,
				Workers:         cfg.Batch.Workers,
				ContinueOnError: cfg.Batch.ContinueOnError,
				Recursive:       cfg.Batch.Recursive,
				IncludePatterns: include,
				ExcludePatterns: exclude,
				ShowProgress:    progress,
				Quiet:           quiet,
				ProgressWriter:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			if err := res.SaveResults(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.File,
				cfg.Output.ConfidencePrecision, quiet); err != nil {
				return err
			}
			if stats {
				res.PrintStats(cmd.ErrOrStderr(), quiet)
			}
			if s := res.Stats(); s.FailedImages > 0 {
				return fmt.Errorf("%d of %d images failed", s.FailedImages, s.TotalImages)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&expectedDigits, "expected-digits", "n", 0, "number of digits expected per image")
	cmd.Flags().BoolP("recursive", "r", false, "scan directories recursively")
	cmd.Flags().IntP("workers", "w", 4, "number of parallel workers")
	cmd.Flags().Bool("continue-on-error", false, "keep going when an image fails")
	cmd.Flags().StringSliceVar(&include, "include", nil, "only process files matching these patterns")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "skip files matching these patterns")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress and status messages")
	cmd.Flags().BoolVar(&stats, "stats", false, "print processing statistics to stderr")
	addOutputFlags(a, cmd)
	addModelFlag(a, cmd)
	a.bind(cmd,
		flagBinding{"batch.recursive", "recursive"},
		flagBinding{"batch.workers", "workers"},
		flagBinding{"batch.continue_on_error", "continue-on-error"},
	)
	return cmd
}
