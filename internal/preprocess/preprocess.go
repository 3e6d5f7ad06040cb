// Package preprocess normalizes illumination and contrast so that digits
// appear as bright strokes on a dark, even background.
package preprocess

import (
	"errors"
	"image"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

// ErrEmptyImage is returned for nil or zero-sized input.
var ErrEmptyImage = errors.New("empty image")

// Config holds preprocessing parameters.
type Config struct {
	BackgroundKernel int // side of the closing element estimating the background
	CLAHE            imgproc.CLAHEConfig
}

// DefaultConfig returns a 25x25 background element and CLAHE clip 2.5 on 8x8 tiles.
func DefaultConfig() Config {
	return Config{BackgroundKernel: 25, CLAHE: imgproc.DefaultCLAHEConfig()}
}

// Output carries the enhanced image and diagnostics.
type Output struct {
	Enhanced *image.Gray
	// ContrastStdDev is the standard deviation of the CLAHE output before
	// polarity normalization.
	ContrastStdDev float64
	Inverted       bool
}

// Run converts img to grayscale, smooths it, removes background illumination
// (closing minus image, saturating), equalizes local contrast and finally
// inverts the result if its mean exceeds 127.
func Run(img image.Image, cfg Config) (Output, error) {
	if img == nil || img.Bounds().Empty() {
		return Output{}, &utils.ImageProcessingError{Operation: "preprocess", Err: ErrEmptyImage}
	}
	if cfg.BackgroundKernel <= 0 {
		cfg.BackgroundKernel = DefaultConfig().BackgroundKernel
	}

	gray := utils.ToGray(img)
	blurred := imgproc.GaussianBlur3(gray)
	background := imgproc.Close(blurred, cfg.BackgroundKernel, cfg.BackgroundKernel)
	normalized := imgproc.SubtractSaturate(background, blurred)
	enhanced := imgproc.CLAHE(normalized, cfg.CLAHE)

	mean, std := imgproc.MeanStdDev(enhanced)
	out := Output{Enhanced: enhanced, ContrastStdDev: std}
	if mean > 127 {
		out.Enhanced = imgproc.Invert(enhanced)
		out.Inverted = true
	}
	return out, nil
}
