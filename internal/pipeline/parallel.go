package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Input is one image of a batch.
type Input struct {
	Name           string
	Data           []byte
	ExpectedDigits int
}

// BatchResult is the outcome for one batch input.
type BatchResult struct {
	Name   string             `json:"source"`
	Result *RecognitionResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
	Err    error              `json:"-"`
}

// BatchConfig controls RecognizeBatch.
type BatchConfig struct {
	Workers          int // 0 = pipeline Config.Workers
	Debug            bool
	ProgressCallback ProgressCallback
}

type batchJob struct {
	index int
	input Input
}

// RecognizeBatch recognizes inputs with a bounded worker pool. Results keep
// the input order; per-input failures are reported in BatchResult.Err. The
// returned error is non-nil only when ctx is cancelled.
func (p *Pipeline) RecognizeBatch(ctx context.Context, inputs []Input, cfg BatchConfig) ([]BatchResult, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no inputs provided")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = p.cfg.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(inputs))

	progress := cfg.ProgressCallback
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	progress.OnStart(len(inputs))
	defer progress.OnComplete()

	jobs := make(chan batchJob)
	results := make([]BatchResult, len(inputs))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := p.RecognizeWithOptions(ctx, job.input.Data, Options{
					ExpectedDigits: job.input.ExpectedDigits,
					Debug:          cfg.Debug || p.cfg.Debug,
				})
				br := BatchResult{Name: job.input.Name, Result: res, Err: err}
				if err != nil {
					br.Error = err.Error()
				}
				results[job.index] = br

				mu.Lock()
				done++
				if err != nil {
					progress.OnError(done, err)
				}
				progress.OnProgress(done, len(inputs))
				mu.Unlock()
			}
		}()
	}

send:
	for i, in := range inputs {
		select {
		case jobs <- batchJob{index: i, input: in}:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
