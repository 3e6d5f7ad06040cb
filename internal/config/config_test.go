package config

import (
	"image/color"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "models", cfg.ModelsDir)
	assert.Equal(t, "svm", cfg.Model.Kind)
	assert.Equal(t, 80, cfg.Pipeline.MinArea)
	assert.Equal(t, 2, cfg.Pipeline.BBoxPad)
	assert.Equal(t, 2, cfg.Pipeline.ProjectionPad)
	assert.InDelta(t, 3.0, cfg.Pipeline.OwnershipMargin, 1e-9)
	assert.Equal(t, 28, cfg.Pipeline.CanvasSize)
	assert.Equal(t, 20, cfg.Pipeline.TargetExtent)
	assert.InDelta(t, 2.5, cfg.Pipeline.CLAHEClipLimit, 1e-9)
	assert.Equal(t, 8, cfg.Pipeline.CLAHETiles)
	assert.Equal(t, 25, cfg.Pipeline.BackgroundKernel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"model kind", func(c *Config) { c.Model.Kind = "cnn" }, "invalid model kind"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"precision", func(c *Config) { c.Output.ConfidencePrecision = 9 }, "invalid confidence precision"},
		{"color", func(c *Config) { c.Output.OverlayBoxColor = "#zzzzzz" }, "overlay_box_color"},
		{"min area", func(c *Config) { c.Pipeline.MinArea = 0 }, "pipeline.min_area"},
		{"extent", func(c *Config) { c.Pipeline.TargetExtent = 40 }, "exceeds canvas size"},
		{"padding", func(c *Config) { c.Pipeline.BBoxPad = -1 }, "padding"},
		{"clip", func(c *Config) { c.Pipeline.CLAHEClipLimit = -1 }, "clahe_clip_limit"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "invalid max upload size"},
		{"timeout", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
		{"rate limit", func(c *Config) { c.Server.RateLimit.RequestsPerHour = -1 }, "invalid rate limit"},
		{"batch workers", func(c *Config) { c.Batch.Workers = 0 }, "invalid batch workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.MinArea = 120
	cfg.Pipeline.CLAHETiles = 4
	cfg.Pipeline.Workers = 3
	cfg.Pipeline.Debug = true
	cfg.Output.OverlayBoxColor = "#FF0000"

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, 120, pc.Detector.MinArea)
	assert.Equal(t, 4, pc.Preprocess.CLAHE.TilesX)
	assert.Equal(t, 4, pc.Preprocess.CLAHE.TilesY)
	assert.Equal(t, 25, pc.Preprocess.BackgroundKernel)
	assert.Equal(t, 28, pc.Detector.Canvas.CanvasSize)
	assert.Equal(t, 3, pc.Workers)
	assert.True(t, pc.Debug)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, pc.OverlayBoxColor)
	assert.Equal(t, color.NRGBA{R: 0, G: 230, B: 255, A: 255}, pc.OverlayLabelColor)
}

func TestToStoreConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = "/srv/models"
	cfg.Model.Kind = "KNN"
	cfg.Model.SVMPath = "/tmp/svm.yaml"

	sc := cfg.ToStoreConfig()
	assert.Equal(t, "/srv/models", sc.ModelsDir)
	assert.Equal(t, models.KindKNN, sc.DefaultKind)
	assert.Equal(t, "/tmp/svm.yaml", sc.SVMPath)
	assert.Empty(t, sc.KNNPath)
}
