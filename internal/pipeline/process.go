package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/MeKo-Tech/digitread/internal/detector"
	"github.com/MeKo-Tech/digitread/internal/features"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/preprocess"
	"github.com/MeKo-Tech/digitread/internal/recognizer"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

// digitRecord is the classification of one candidate before formatting.
type digitRecord struct {
	index      int
	box        image.Rectangle
	crop       *image.Gray
	label      string
	confidence float64 // in [0, 1]
}

// stageArtifacts are the intermediate frames kept for the debug payload.
type stageArtifacts struct {
	original *image.NRGBA
	enhanced *image.Gray
	mask     *image.Gray
	stdDev   float64
}

// Recognize decodes data and recognizes the digits in it. expectedDigits
// enables the projection fallback when positive.
func (p *Pipeline) Recognize(ctx context.Context, data []byte, expectedDigits int) (*RecognitionResult, error) {
	return p.RecognizeWithOptions(ctx, data, Options{ExpectedDigits: expectedDigits, Debug: p.cfg.Debug})
}

// RecognizeWithOptions is Recognize with per-call options.
func (p *Pipeline) RecognizeWithOptions(ctx context.Context, data []byte, opts Options) (*RecognitionResult, error) {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		recognitionsTotal.WithLabelValues("invalid_image").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return p.RecognizeImage(ctx, img, opts)
}

// RecognizeImage recognizes the digits in an already decoded image.
func (p *Pipeline) RecognizeImage(ctx context.Context, img image.Image, opts Options) (*RecognitionResult, error) {
	res, err := p.recognize(ctx, img, opts)
	recognitionsTotal.WithLabelValues(statusLabel(err)).Inc()
	return res, err
}

func (p *Pipeline) recognize(ctx context.Context, img image.Image, opts Options) (*RecognitionResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	bundle, err := p.models.Current()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	original := utils.EnsureColor(img)

	t := time.Now()
	pre, err := preprocess.Run(original, p.cfg.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	observeStage("preprocess", t)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t = time.Now()
	mask := detector.Binarize(pre.Enhanced)
	observeStage("binarize", t)

	t = time.Now()
	seg := detector.Segment(mask, pre.Enhanced, opts.ExpectedDigits, p.cfg.Detector)
	observeStage("segment", t)
	if seg.UsedFallback {
		segmentationFallbacks.Inc()
	}
	if len(seg.Candidates) == 0 {
		return nil, ErrNoDigits
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t = time.Now()
	records, err := classifyCandidates(seg.Candidates, bundle)
	if err != nil {
		return nil, err
	}
	observeStage("classify", t)
	if len(records) == 0 {
		return nil, ErrNoDigits
	}

	res := buildResult(records, bundle.Name)
	res.ProcessingTimeMs = time.Since(start).Milliseconds()
	res.Strategy = string(detector.StrategyContour)
	if seg.UsedFallback {
		res.Strategy = string(detector.StrategyProjection)
	}
	digitsRecognized.Observe(float64(len(res.Digits)))

	if opts.Debug {
		t = time.Now()
		payload, err := p.buildDebugPayload(res, records, stageArtifacts{
			original: original,
			enhanced: pre.Enhanced,
			mask:     mask,
			stdDev:   pre.ContrastStdDev,
		})
		if err != nil {
			return nil, err
		}
		res.Pipeline = payload
		observeStage("debug", t)
	}

	slog.Debug("Recognition complete",
		"prediction", res.Prediction,
		"accuracy", res.Accuracy,
		"digits", len(res.Digits),
		"strategy", res.Strategy,
		"regions", seg.RegionCount,
		"model", bundle.Name,
		"duration_ms", res.ProcessingTimeMs)
	return res, nil
}

func classifyCandidates(cands []detector.Candidate, bundle *models.Bundle) ([]digitRecord, error) {
	records := make([]digitRecord, 0, len(cands))
	for i, c := range cands {
		if c.Crop == nil || c.Box.Empty() {
			continue
		}
		desc, err := features.Extract(c.Crop, bundle.HOG)
		if err != nil {
			return nil, fmt.Errorf("digit %d: extract features: %w", i, err)
		}
		pred, err := recognizer.Classify(desc, bundle.Estimator, bundle.Scaler)
		if err != nil {
			return nil, fmt.Errorf("digit %d: classify: %w", i, err)
		}
		records = append(records, digitRecord{
			index:      i,
			box:        c.Box,
			crop:       c.Crop,
			label:      pred.Label,
			confidence: pred.Confidence,
		})
	}
	return records, nil
}

func buildResult(records []digitRecord, modelName string) *RecognitionResult {
	var sb strings.Builder
	var sum float64
	digits := make([]DigitComponent, 0, len(records))
	for _, r := range records {
		digits = append(digits, DigitComponent{
			Label:      r.label,
			Confidence: round2(r.confidence * 100),
			BBox:       NewBBox(r.box),
		})
		sb.WriteString(r.label)
		sum += r.confidence
	}
	return &RecognitionResult{
		Prediction: sb.String(),
		Accuracy:   round2(sum / float64(len(records)) * 100),
		Digits:     digits,
		ModelName:  modelName,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, ErrNoDigits):
		return "no_digits"
	case errors.Is(err, models.ErrModelNotReady), errors.Is(err, models.ErrArtifactNotFound),
		errors.Is(err, models.ErrArtifactInvalid):
		return "model_not_ready"
	default:
		return "error"
	}
}
