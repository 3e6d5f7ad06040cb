package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
)

// ImageRecognizer recognizes the digits in a decoded image.
type ImageRecognizer interface {
	RecognizeImage(ctx context.Context, img image.Image, opts pipeline.Options) (*pipeline.RecognitionResult, error)
}

// ProcessorConfig controls PDF processing.
type ProcessorConfig struct {
	ExpectedDigits int
	Debug          bool
	// MaxWorkers bounds the pages processed at once; 0 = runtime.NumCPU().
	MaxWorkers int
}

// Processor recognizes digits in the images embedded in PDF files.
type Processor struct {
	recognizer ImageRecognizer
	config     ProcessorConfig
	extract    func(filename, pageRange string) (map[int][]image.Image, error)
}

// NewProcessor creates a processor backed by rec.
func NewProcessor(rec ImageRecognizer, config ProcessorConfig) *Processor {
	return &Processor{recognizer: rec, config: config, extract: ExtractImages}
}

// ProcessFile processes one PDF file.
func (p *Processor) ProcessFile(ctx context.Context, filename, pageRange string) (*DocumentResult, error) {
	return p.ProcessFileWithCredentials(ctx, filename, pageRange, nil)
}

// ProcessFileWithCredentials processes one PDF file, decrypting it first
// when it is password protected.
func (p *Processor) ProcessFileWithCredentials(ctx context.Context, filename, pageRange string,
	creds *PasswordCredentials,
) (*DocumentResult, error) {
	start := time.Now()

	working := filename
	if creds != nil {
		decrypted, err := DecryptPDF(filename, creds)
		if err != nil {
			return nil, err
		}
		if decrypted != filename {
			defer func() {
				if err := CleanupTempFile(decrypted); err != nil {
					slog.Warn("Failed to remove decrypted copy", "file", decrypted, "error", err)
				}
			}()
		}
		working = decrypted
	}

	extractStart := time.Now()
	pageImages, err := p.extract(working, pageRange)
	if err != nil {
		return nil, err
	}
	extractTime := time.Since(extractStart)

	recognizeStart := time.Now()
	pages, err := p.processAllPages(ctx, pageImages)
	if err != nil {
		return nil, err
	}

	return &DocumentResult{
		Filename:   filename,
		TotalPages: len(pages),
		Pages:      pages,
		Processing: ProcessingInfo{
			ExtractionTimeMs:  extractTime.Milliseconds(),
			RecognitionTimeMs: time.Since(recognizeStart).Milliseconds(),
			TotalTimeMs:       time.Since(start).Milliseconds(),
		},
	}, nil
}

// ProcessFiles processes several PDF files and stops at the first failure.
func (p *Processor) ProcessFiles(ctx context.Context, filenames []string, pageRange string,
	creds *PasswordCredentials,
) ([]*DocumentResult, error) {
	results := make([]*DocumentResult, 0, len(filenames))
	for _, filename := range filenames {
		result, err := p.ProcessFileWithCredentials(ctx, filename, pageRange, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", filename, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// processAllPages recognizes pages with a bounded worker pool and returns
// them in page order.
func (p *Processor) processAllPages(ctx context.Context, pageImages map[int][]image.Image) ([]PageResult, error) {
	pageList := make([]int, 0, len(pageImages))
	for n := range pageImages {
		pageList = append(pageList, n)
	}
	sort.Ints(pageList)
	if len(pageList) == 0 {
		return []PageResult{}, nil
	}

	workers := p.config.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(pageList))

	type out struct {
		page int
		res  PageResult
		err  error
	}

	jobs := make(chan int, len(pageList))
	results := make(chan out, len(pageList))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pageNum := range jobs {
				pr, err := p.processPage(ctx, pageNum, pageImages[pageNum])
				results <- out{page: pageNum, res: pr, err: err}
			}
		}()
	}
	for _, n := range pageList {
		jobs <- n
	}
	close(jobs)
	go func() { wg.Wait(); close(results) }()

	byPage := make(map[int]PageResult, len(pageList))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to process page %d: %w", r.page, r.err)
		}
		byPage[r.page] = r.res
	}
	if firstErr != nil {
		return nil, firstErr
	}

	pages := make([]PageResult, 0, len(pageList))
	for _, n := range pageList {
		pages = append(pages, byPage[n])
	}
	return pages, nil
}

// processPage recognizes every image of one page. Per-image recognition
// failures are recorded on the image; only cancellation and model errors
// fail the page.
func (p *Processor) processPage(ctx context.Context, pageNum int, images []image.Image) (PageResult, error) {
	pr := PageResult{PageNumber: pageNum, Images: make([]ImageResult, 0, len(images))}
	opts := pipeline.Options{ExpectedDigits: p.config.ExpectedDigits, Debug: p.config.Debug}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return PageResult{}, err
		}
		b := img.Bounds()
		ir := ImageResult{ImageIndex: i, Width: b.Dx(), Height: b.Dy()}

		res, err := p.recognizer.RecognizeImage(ctx, img, opts)
		switch {
		case err == nil:
			ir.Result = res
		case errors.Is(err, pipeline.ErrNoDigits), errors.Is(err, pipeline.ErrInvalidImage):
			ir.Error = err.Error()
		default:
			return PageResult{}, err
		}
		pr.Images = append(pr.Images, ir)
	}
	return pr, nil
}
