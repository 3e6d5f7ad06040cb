package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/digitread/internal/common"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/testutil"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

func main() {
	var (
		modelsDir  = flag.String("models", models.DefaultModelsDir, "Directory containing the classifier artifacts")
		kindName   = flag.String("kind", "svm", "Classifier to benchmark: svm or knn")
		iterations = flag.Int("iterations", 20, "Number of iterations per benchmark")
		maxDigits  = flag.Int("max-digits", 8, "Longest digit string to benchmark")
		outputFile = flag.String("output", "", "Output file for CSV results (optional)")
		debug      = flag.Bool("debug", false, "Include the debug payload in every recognition")
	)
	flag.Parse()

	fmt.Println("digitread Recognition Benchmark")
	fmt.Println("===============================")

	kind, err := models.ParseKind(*kindName)
	if err != nil {
		log.Fatal(err)
	}
	store := models.NewStore(models.StoreConfig{ModelsDir: *modelsDir, DefaultKind: kind})
	if _, err := store.Load(kind, ""); err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	pl, err := pipeline.NewBuilder().WithModels(store).WithDebug(*debug).Build()
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	fmt.Printf("Running benchmarks with %d iterations per test...\n\n", *iterations)

	ctx := context.Background()
	var results []common.Measurement
	for n := 1; n <= *maxDigits; n++ {
		text := strings.Repeat("0123456789", n/10+1)[:n]
		data, err := utils.EncodePNG(testutil.RenderDigits(text, testutil.DefaultRenderOptions()))
		if err != nil {
			log.Fatalf("Failed to render %q: %v", text, err)
		}
		m := common.Measure(fmt.Sprintf("%d digits", n), *iterations, func() error {
			res, err := pl.Recognize(ctx, data, 0)
			if err != nil {
				return err
			}
			if res.Prediction != text {
				return fmt.Errorf("recognized %q, want %q", res.Prediction, text)
			}
			return nil
		})
		results = append(results, m)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TEST\tITERATIONS\tAVG\tALLOC KB\tERROR")
	for _, m := range results {
		errText := ""
		if m.Error != nil {
			errText = m.Error.Error()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%v\t%d\t%s\n", m.Name, m.Iterations, m.Average(), m.Allocated/1024, errText)
	}
	_ = tw.Flush()

	if *outputFile != "" {
		if err := saveResultsToFile(*outputFile, results); err != nil {
			log.Printf("Failed to save results to file: %v", err)
		} else {
			fmt.Printf("Results saved to: %s\n", *outputFile)
		}
	}
}

func saveResultsToFile(filename string, results []common.Measurement) error {
	file, err := os.Create(filename) //nolint:gosec // G304: output path comes from the command line
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(file, "Test,Iterations,Avg_ms,Alloc_KB,Error")
	for _, m := range results {
		errText := ""
		if m.Error != nil {
			errText = strings.ReplaceAll(m.Error.Error(), ",", ";")
		}
		_, _ = fmt.Fprintf(file, "%s,%d,%.3f,%d,%s\n",
			m.Name, m.Iterations, float64(m.Average().Microseconds())/1000, m.Allocated/1024, errText)
	}
	return nil
}
