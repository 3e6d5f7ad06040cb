package pipeline

import (
	"image"
)

// BBox is a box as [x, y, width, height] in source pixels.
type BBox [4]int

// NewBBox converts r into a BBox.
func NewBBox(r image.Rectangle) BBox {
	return BBox{r.Min.X, r.Min.Y, r.Dx(), r.Dy()}
}

// Rect converts b back to an image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b[0], b[1], b[0]+b[2], b[1]+b[3])
}

// DigitComponent is one recognized digit. Confidence is a percentage.
type DigitComponent struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// RecognitionResult is the outcome of recognizing one image.
type RecognitionResult struct {
	Prediction       string           `json:"prediction"`
	Accuracy         float64          `json:"accuracy"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	Digits           []DigitComponent `json:"digits"`
	Pipeline         *DebugPayload    `json:"pipeline,omitempty"`
	ModelName        string           `json:"model_name,omitempty"`

	// Strategy is the segmentation strategy that produced the digits.
	Strategy string `json:"-"`
}

// Stage is one intermediate frame of the debug payload.
type Stage struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"` // base64 PNG
}

// DigitCrop is the canonical crop of one digit, upscaled for display.
type DigitCrop struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Image      string  `json:"image"` // base64 PNG
}

// Summary repeats the headline numbers next to the debug frames.
type Summary struct {
	Prediction       string  `json:"prediction"`
	Accuracy         float64 `json:"accuracy"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	DigitCount       int     `json:"digit_count"`
	ContrastStdDev   float64 `json:"contrast_std_dev"`
}

// DebugPayload explains how the pipeline reached its prediction.
type DebugPayload struct {
	Stages     []Stage     `json:"stages"`
	DigitCrops []DigitCrop `json:"digit_crops"`
	Summary    Summary     `json:"summary"`
}

// Options are per-call settings.
type Options struct {
	// ExpectedDigits enables the projection fallback when positive.
	ExpectedDigits int
	Debug          bool
}
