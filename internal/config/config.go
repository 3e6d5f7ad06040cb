package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/canonical"
	"github.com/MeKo-Tech/digitread/internal/detector"
	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/preprocess"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

// DefaultConfig returns a configuration with the standard stage parameters.
func DefaultConfig() Config {
	pre := preprocess.DefaultConfig()
	det := detector.DefaultOptions()
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Model: ModelConfig{
			Kind: string(models.KindSVM),
		},
		Pipeline: PipelineConfig{
			MinArea:          det.MinArea,
			BBoxPad:          det.BBoxPad,
			ProjectionPad:    det.ProjectionPad,
			OwnershipMargin:  det.OwnershipMargin,
			CanvasSize:       det.Canvas.CanvasSize,
			TargetExtent:     det.Canvas.TargetExtent,
			CLAHEClipLimit:   pre.CLAHE.ClipLimit,
			CLAHETiles:       pre.CLAHE.TilesX,
			BackgroundKernel: pre.BackgroundKernel,
			Workers:          runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format:              "text",
			ConfidencePrecision: 2,
			OverlayBoxColor:     "#00C800",
			OverlayLabelColor:   "#00E6FF",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 10000,
				MaxDataPerDayMB:   1024,
			},
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if _, err := models.ParseKind(c.Model.Kind); err != nil {
		return fmt.Errorf("invalid model kind: %w", err)
	}

	validFormats := []string{pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatCSV}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.ConfidencePrecision < 0 || c.Output.ConfidencePrecision > 6 {
		return fmt.Errorf("invalid confidence precision: %d (must be between 0 and 6)", c.Output.ConfidencePrecision)
	}
	for name, value := range map[string]string{
		"output.overlay_box_color":   c.Output.OverlayBoxColor,
		"output.overlay_label_color": c.Output.OverlayLabelColor,
	} {
		if value == "" {
			continue
		}
		if _, err := utils.ParseHexColor(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if err := c.Pipeline.validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	return nil
}

func (p PipelineConfig) validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"pipeline.min_area", p.MinArea},
		{"pipeline.canvas_size", p.CanvasSize},
		{"pipeline.target_extent", p.TargetExtent},
		{"pipeline.clahe_tiles", p.CLAHETiles},
		{"pipeline.background_kernel", p.BackgroundKernel},
		{"pipeline.workers", p.Workers},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return fmt.Errorf("invalid %s: %d (must be positive)", f.name, f.value)
		}
	}
	if p.TargetExtent > p.CanvasSize {
		return fmt.Errorf("invalid pipeline.target_extent: %d exceeds canvas size %d", p.TargetExtent, p.CanvasSize)
	}
	if p.BBoxPad < 0 || p.ProjectionPad < 0 || p.OwnershipMargin < 0 {
		return fmt.Errorf("invalid pipeline padding: values must not be negative")
	}
	if p.CLAHEClipLimit < 0 {
		return fmt.Errorf("invalid pipeline.clahe_clip_limit: %.2f (must not be negative)", p.CLAHEClipLimit)
	}
	return nil
}

// ToPipelineConfig converts the config to the pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	p := c.Pipeline
	cfg.Preprocess = preprocess.Config{
		BackgroundKernel: p.BackgroundKernel,
		CLAHE: imgproc.CLAHEConfig{
			ClipLimit: p.CLAHEClipLimit,
			TilesX:    p.CLAHETiles,
			TilesY:    p.CLAHETiles,
		},
	}
	cfg.Detector = detector.Options{
		MinArea:         p.MinArea,
		BBoxPad:         p.BBoxPad,
		ProjectionPad:   p.ProjectionPad,
		OwnershipMargin: p.OwnershipMargin,
		Canvas:          canonical.Config{CanvasSize: p.CanvasSize, TargetExtent: p.TargetExtent},
	}
	cfg.Workers = p.Workers
	cfg.Debug = p.Debug
	if col, err := utils.ParseHexColor(c.Output.OverlayBoxColor); err == nil {
		cfg.OverlayBoxColor = col
	}
	if col, err := utils.ParseHexColor(c.Output.OverlayLabelColor); err == nil {
		cfg.OverlayLabelColor = col
	}
	return cfg
}

// ToStoreConfig converts the config to the model store configuration.
func (c *Config) ToStoreConfig() models.StoreConfig {
	kind, err := models.ParseKind(c.Model.Kind)
	if err != nil {
		kind = models.KindSVM
	}
	return models.StoreConfig{
		ModelsDir:   c.ModelsDir,
		SVMPath:     c.Model.SVMPath,
		KNNPath:     c.Model.KNNPath,
		DefaultKind: kind,
	}
}
