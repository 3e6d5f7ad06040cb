// Package pipeline runs digit recognition end to end: preprocessing,
// binarization, segmentation, feature extraction and classification.
package pipeline

import (
	"errors"
	"image/color"
	"runtime"

	"github.com/MeKo-Tech/digitread/internal/detector"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/preprocess"
)

var (
	// ErrInvalidImage is returned when the input cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoDigits is returned when segmentation finds nothing to classify.
	ErrNoDigits = errors.New("no digits detected")
)

// ModelSource yields the model bundle for one recognition call.
type ModelSource interface {
	Current() (*models.Bundle, error)
}

// Config holds configuration for the pipeline and its stages.
type Config struct {
	Preprocess preprocess.Config
	Detector   detector.Options
	Debug      bool // build the debug payload by default
	Workers    int  // batch workers, 0 = runtime.NumCPU()

	OverlayBoxColor   color.NRGBA
	OverlayLabelColor color.NRGBA
}

// DefaultConfig returns the default stage parameters.
func DefaultConfig() Config {
	return Config{
		Preprocess:        preprocess.DefaultConfig(),
		Detector:          detector.DefaultOptions(),
		Workers:           runtime.NumCPU(),
		OverlayBoxColor:   color.NRGBA{R: 0, G: 200, B: 0, A: 255},
		OverlayLabelColor: color.NRGBA{R: 0, G: 230, B: 255, A: 255},
	}
}

// Pipeline recognizes digits with the bundle currently offered by its
// model source. It is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	models ModelSource
}

// New creates a pipeline.
func New(cfg Config, src ModelSource) (*Pipeline, error) {
	if src == nil {
		return nil, errors.New("pipeline requires a model source")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{cfg: cfg, models: src}, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
	src ModelSource
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithModels sets the model source.
func (b *Builder) WithModels(src ModelSource) *Builder {
	b.src = src
	return b
}

// WithDebug enables the debug payload for every call.
func (b *Builder) WithDebug(debug bool) *Builder {
	b.cfg.Debug = debug
	return b
}

// WithWorkers sets the batch worker count.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Workers = n
	}
	return b
}

// Build validates the configuration and creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	return New(b.cfg, b.src)
}
