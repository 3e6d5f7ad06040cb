package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/MeKo-Tech/digitread/internal/batch"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/utils"
	"github.com/spf13/cobra"
)

func newImageCommand(a *app) *cobra.Command {
	var (
		expectedDigits int
		debugDir       string
	)

	cmd := &cobra.Command{
		Use:   "image <file...>",
		Short: "Recognize the digits in one or more images",
		Long: `Recognize the digit string in each image file.

Supported formats: JPEG, PNG, BMP, GIF, TIFF, WebP

Examples:
  digitread image meter.png
  digitread image a.png b.png --format json
  digitread image meter.jpg --expected-digits 5 --debug-dir debug/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expectedDigits < 0 {
				return fmt.Errorf("invalid expected digits: %d (must not be negative)", expectedDigits)
			}
			cfg := a.cfg
			pl, _, err := a.newPipeline()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			opts := pipeline.Options{ExpectedDigits: expectedDigits, Debug: debugDir != "" || cfg.Pipeline.Debug}
			results := make([]pipeline.BatchResult, 0, len(args))
			failed := 0
			for _, path := range args {
				br := pipeline.BatchResult{Name: path}
				data, _, err := utils.ReadImageFile(path)
				if err == nil {
					br.Result, err = pl.RecognizeWithOptions(ctx, data, opts)
				}
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					slog.Warn("Recognition failed", "file", path, "error", err)
					br.Err, br.Error = err, err.Error()
					failed++
					results = append(results, br)
					continue
				}

				if cfg.Output.OverlayDir != "" {
					if out, err := saveOverlay(cfg.Output.OverlayDir, path, data, br.Result, pl.Config()); err != nil {
						slog.Warn("Failed to write overlay", "file", path, "error", err)
					} else {
						slog.Info("Overlay written", "file", out)
					}
				}
				if debugDir != "" {
					if _, err := saveDebugImages(debugDir, path, br.Result.Pipeline); err != nil {
						slog.Warn("Failed to write debug images", "file", path, "error", err)
					}
					if cfg.Output.Format != pipeline.FormatJSON {
						br.Result.Pipeline = nil
					}
				}
				results = append(results, br)
			}

			if len(args) == 1 && failed == 1 {
				return results[0].Err
			}

			out, err := formatImageResults(results, cfg.Output.Format, cfg.Output.ConfidencePrecision)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), out, cfg.Output.File); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&expectedDigits, "expected-digits", "n", 0,
		"number of digits expected; enables the projection fallback when segmentation finds fewer")
	cmd.Flags().StringVar(&debugDir, "debug-dir", "", "directory to write the intermediate pipeline images to")
	addOutputFlags(a, cmd)
	addModelFlag(a, cmd)
	return cmd
}

func addModelFlag(a *app, cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "svm", "classifier to use: svm or knn")
	a.bind(cmd, flagBinding{"model.kind", "model"})
}

// addOutputFlags adds the flags shared by the image and batch commands.
func addOutputFlags(a *app, cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", pipeline.FormatText, "output format: text, json or csv")
	cmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	cmd.Flags().String("overlay-dir", "", "directory to write annotated overlay images to")
	cmd.Flags().Int("precision", 2, "decimal places for confidences in text and csv output")
	a.bind(cmd,
		flagBinding{"output.format", "format"},
		flagBinding{"output.file", "output"},
		flagBinding{"output.overlay_dir", "overlay-dir"},
		flagBinding{"output.confidence_precision", "precision"},
	)
}

// formatImageResults renders single results plainly and several results
// with their file names.
func formatImageResults(results []pipeline.BatchResult, format string, precision int) (string, error) {
	if len(results) == 1 && results[0].Result != nil {
		res := results[0].Result
		switch format {
		case pipeline.FormatJSON:
			s, err := pipeline.ToJSON(res)
			return s + "\n", err
		case pipeline.FormatCSV:
			return pipeline.ToCSV(res, precision)
		default:
			return pipeline.ToPlainText(res, precision)
		}
	}

	return (&batch.Result{Results: results}).FormatResults(format, precision)
}
