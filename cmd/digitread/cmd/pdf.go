package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/pdf"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/spf13/cobra"
)

func newPDFCommand(a *app) *cobra.Command {
	var (
		pages          string
		password       string
		ownerPassword  string
		expectedDigits int
		workers        int
	)

	cmd := &cobra.Command{
		Use:   "pdf <file...>",
		Short: "Recognize digits in the images embedded in PDF files",
		Long: `Extract the images embedded in PDF pages and recognize the digit
string of each image. Works with scanned forms and meter photos saved as PDF.

Examples:
  digitread pdf readings.pdf
  digitread pdf scan.pdf --pages 1-3,5 --format json
  digitread pdf locked.pdf --password secret`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			format := cfg.Output.Format
			if format != pipeline.FormatJSON && format != pipeline.FormatText {
				return fmt.Errorf("unsupported format for pdf: %s (must be text or json)", format)
			}
			pl, _, err := a.newPipeline()
			if err != nil {
				return err
			}

			var creds *pdf.PasswordCredentials
			if password != "" || ownerPassword != "" {
				creds = &pdf.PasswordCredentials{UserPassword: password, OwnerPassword: ownerPassword}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			proc := pdf.NewProcessor(pl, pdf.ProcessorConfig{
				ExpectedDigits: expectedDigits,
				Debug:          cfg.Pipeline.Debug,
				MaxWorkers:     workers,
			})
			docs, err := proc.ProcessFiles(ctx, args, pages, creds)
			if err != nil {
				if pdf.IsPasswordError(err) && creds == nil {
					return fmt.Errorf("%w (use --password to decrypt)", err)
				}
				return err
			}

			var out string
			if format == pipeline.FormatJSON {
				b, err := json.MarshalIndent(docs, "", "  ")
				if err != nil {
					return err
				}
				out = string(b) + "\n"
			} else {
				out = formatPDFText(docs, cfg.Output.ConfidencePrecision)
			}
			return writeOutput(cmd.OutOrStdout(), out, cfg.Output.File)
		},
	}

	cmd.Flags().StringVar(&pages, "pages", "", "page range to process, e.g. '1-5' or '1,3,5'")
	cmd.Flags().StringVar(&password, "password", "", "user password for encrypted PDFs")
	cmd.Flags().StringVar(&ownerPassword, "owner-password", "", "owner password for encrypted PDFs")
	cmd.Flags().IntVarP(&expectedDigits, "expected-digits", "n", 0, "number of digits expected per image")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "pages processed in parallel (0 = number of CPUs)")
	cmd.Flags().StringP("format", "f", pipeline.FormatText, "output format: text or json")
	cmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	addModelFlag(a, cmd)
	a.bind(cmd,
		flagBinding{"output.format", "format"},
		flagBinding{"output.file", "output"},
	)
	return cmd
}

// formatPDFText writes one line per embedded image:
// "<file>\tpage <n>\timage <m>\t<prediction>\t<accuracy>%".
func formatPDFText(docs []*pdf.DocumentResult, precision int) string {
	var sb strings.Builder
	for _, doc := range docs {
		for _, page := range doc.Pages {
			for _, img := range page.Images {
				fmt.Fprintf(&sb, "%s\tpage %d\timage %d\t", doc.Filename, page.PageNumber, img.ImageIndex+1)
				if img.Result == nil {
					fmt.Fprintf(&sb, "error: %s\n", img.Error)
					continue
				}
				fmt.Fprintf(&sb, "%s\t%.*f%%\n", img.Result.Prediction, precision, img.Result.Accuracy)
			}
		}
	}
	return sb.String()
}
