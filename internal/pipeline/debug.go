package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/MeKo-Tech/digitread/internal/utils"
	"github.com/anthonynsimon/bild/transform"
)

// DigitCropScale is the nearest-neighbor upscale applied to debug crops.
const DigitCropScale = 4

const overlayThickness = 2

var stageText = map[string][2]string{
	"original": {
		"1. Original Photo",
		"Input received from the camera or gallery.",
	},
	"preprocess": {
		"2. Preprocessing",
		"Background flattening, CLAHE and polarity normalization to make the digits stand out.",
	},
	"mask": {
		"3. Masking",
		"Otsu threshold separating the digits from the background.",
	},
	"segments": {
		"4. Segmentation",
		"Bounding box of every digit and its reading order.",
	},
}

func (p *Pipeline) buildDebugPayload(res *RecognitionResult, records []digitRecord, art stageArtifacts) (*DebugPayload, error) {
	overlay := RenderOverlay(art.enhanced, res.Digits, p.cfg.OverlayBoxColor, p.cfg.OverlayLabelColor)

	frames := []struct {
		key string
		img image.Image
	}{
		{"original", art.original},
		{"preprocess", art.enhanced},
		{"mask", utils.GrayToNRGBA(art.mask)},
		{"segments", overlay},
	}
	stages := make([]Stage, 0, len(frames))
	for _, f := range frames {
		enc, err := utils.EncodePNGBase64(f.img)
		if err != nil {
			return nil, fmt.Errorf("encode %s stage: %w", f.key, err)
		}
		text := stageText[f.key]
		stages = append(stages, Stage{Key: f.key, Title: text[0], Description: text[1], Image: enc})
	}

	crops := make([]DigitCrop, 0, len(records))
	for i, r := range records {
		enc, err := utils.EncodePNGBase64(DigitDebugImage(r.crop))
		if err != nil {
			return nil, fmt.Errorf("encode digit %d: %w", r.index, err)
		}
		crops = append(crops, DigitCrop{
			Index:      r.index,
			Label:      r.label,
			Confidence: res.Digits[i].Confidence,
			Image:      enc,
		})
	}

	return &DebugPayload{
		Stages:     stages,
		DigitCrops: crops,
		Summary: Summary{
			Prediction:       res.Prediction,
			Accuracy:         res.Accuracy,
			ProcessingTimeMs: res.ProcessingTimeMs,
			DigitCount:       len(res.Digits),
			ContrastStdDev:   round2(art.stdDev),
		},
	}, nil
}

// DigitDebugImage stretches a crop to the full intensity range and enlarges
// it DigitCropScale times with nearest-neighbor sampling.
func DigitDebugImage(crop *image.Gray) *image.RGBA {
	g := imgproc.StretchToFull(crop)
	b := g.Bounds()
	return transform.Resize(g, b.Dx()*DigitCropScale, b.Dy()*DigitCropScale, transform.NearestNeighbor)
}

// RenderOverlay draws the digit boxes and their "#n" reading-order labels on
// a color copy of base.
func RenderOverlay(base image.Image, digits []DigitComponent, boxColor, labelColor color.Color) *image.NRGBA {
	dst := utils.EnsureColor(base)
	for i, d := range digits {
		r := d.BBox.Rect()
		// The outline straddles the box edges.
		outline := image.Rect(r.Min.X-overlayThickness/2, r.Min.Y-overlayThickness/2,
			r.Max.X+overlayThickness/2+1, r.Max.Y+overlayThickness/2+1)
		utils.DrawRect(dst, outline, boxColor, overlayThickness)

		baseline := max(12, r.Min.Y-6)
		utils.DrawLabel(dst, r.Min.X, baseline-11, fmt.Sprintf("#%d", i+1), labelColor)
	}
	return dst
}
