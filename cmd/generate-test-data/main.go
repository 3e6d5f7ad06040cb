package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/testutil"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

// sample is one synthetic image written under testdata/images.
type sample struct {
	dir  string
	text string
	opts testutil.RenderOptions
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		generateImages = flag.Bool("images", true, "Generate synthetic digit images")
		generateModels = flag.Bool("models", true, "Generate template classifier artifacts")
		modelsDir      = flag.String("models-dir", models.DefaultModelsDir, "Directory for the classifier artifacts")
		verbose        = flag.Bool("v", false, "Verbose output")
		help           = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate test data for digitread.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                 # Generate everything\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -models=false   # Generate only images\n", os.Args[0])
	}
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	if *verbose {
		slog.Info("Project root", "path", root)
	}
	if err := os.Chdir(root); err != nil {
		slog.Error("Failed to change to project root", "error", err)
		os.Exit(1)
	}

	if *generateModels {
		for _, kind := range []models.Kind{models.KindSVM, models.KindKNN} {
			path, err := testutil.WriteTemplateArtifact(*modelsDir, kind)
			if err != nil {
				slog.Error("Failed to write template artifact", "kind", kind, "error", err)
				os.Exit(1)
			}
			slog.Info("Wrote template artifact", "kind", kind, "path", path)
		}
	}

	if *generateImages {
		n, err := writeSamples(filepath.Join("testdata", "images"), *verbose)
		if err != nil {
			slog.Error("Failed to generate test images", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated synthetic test images", "count", n)
	}
}

func samples() []sample {
	base := testutil.DefaultRenderOptions()

	small := base
	small.Scale = 2
	small.Gap = 6
	small.Margin = 12

	inverted := base
	inverted.Background = color.Black
	inverted.Foreground = color.White

	lowContrast := base
	lowContrast.Background = color.Gray{Y: 170}
	lowContrast.Foreground = color.Gray{Y: 90}

	tight := base
	tight.Gap = 2

	var out []sample
	for _, text := range []string{"0", "7", "42", "305", "8126", "0123456789"} {
		out = append(out, sample{dir: "simple", text: text, opts: base})
	}
	for _, text := range []string{"19", "640"} {
		out = append(out,
			sample{dir: "small", text: text, opts: small},
			sample{dir: "inverted", text: text, opts: inverted},
			sample{dir: "low_contrast", text: text, opts: lowContrast},
			sample{dir: "touching", text: text, opts: tight},
		)
	}
	return out
}

// writeSamples renders every sample to <dir>/<variant>/digits_<text>.png.
func writeSamples(dir string, verbose bool) (int, error) {
	list := samples()
	for _, s := range list {
		target := filepath.Join(dir, s.dir)
		if err := testutil.EnsureDir(target); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", target, err)
		}
		data, err := utils.EncodePNG(testutil.RenderDigits(s.text, s.opts))
		if err != nil {
			return 0, fmt.Errorf("failed to encode %q: %w", s.text, err)
		}
		path := filepath.Join(target, "digits_"+s.text+".png")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", path, err)
		}
		if verbose {
			slog.Info("Wrote image", "path", path)
		}
	}
	return len(list), nil
}
