// Package canonical converts a digit crop into the fixed-size, centered
// canvas the feature extractor expects.
package canonical

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/disintegration/imaging"
)

const (
	// DefaultCanvasSize is the side of the square output canvas.
	DefaultCanvasSize = 28
	// DefaultTargetExtent is the length the longest side of the digit is scaled to.
	DefaultTargetExtent = 20
)

// Config controls the canvas geometry.
type Config struct {
	CanvasSize   int
	TargetExtent int
}

// DefaultConfig returns a 28x28 canvas with a 20px digit extent.
func DefaultConfig() Config {
	return Config{CanvasSize: DefaultCanvasSize, TargetExtent: DefaultTargetExtent}
}

func (c Config) withDefaults() Config {
	if c.CanvasSize <= 0 {
		c.CanvasSize = DefaultCanvasSize
	}
	if c.TargetExtent <= 0 || c.TargetExtent > c.CanvasSize {
		c.TargetExtent = min(DefaultTargetExtent, c.CanvasSize)
	}
	return c
}

// Canonicalize produces a CanvasSize x CanvasSize image with bright
// foreground on black. Steps: min-max stretch, polarity normalization,
// aspect-preserving scale of the longest side to TargetExtent (area filter
// when shrinking, cubic when enlarging), centered paste, and a final integer
// shift that moves the intensity centroid to the canvas center.
// An empty crop yields an all-zero canvas.
func Canonicalize(crop *image.Gray, cfg Config) *image.Gray {
	cfg = cfg.withDefaults()
	size := cfg.CanvasSize
	if imgproc.Empty(crop) {
		return imgproc.NewGray(size, size)
	}

	img := imgproc.NormalizePolarity(imgproc.StretchToFull(crop))
	w, h := img.Rect.Dx(), img.Rect.Dy()

	scale := float64(cfg.TargetExtent) / float64(max(w, h))
	newW := max(1, int(math.RoundToEven(float64(w)*scale)))
	newH := max(1, int(math.RoundToEven(float64(h)*scale)))
	filter := imaging.CatmullRom
	if scale < 1 {
		filter = imaging.Box
	}
	digit := imaging.Resize(img, newW, newH, filter)

	canvas := imaging.New(size, size, color.Black)
	canvas = imaging.Paste(canvas, digit, image.Pt((size-newW)/2, (size-newH)/2))
	out := redChannel(canvas)

	cx, cy, ok := imgproc.ImageMoments(out).Centroid()
	if !ok {
		return out
	}
	half := float64(size) / 2
	dx := int(clip(half-cx, -float64(size), float64(size)))
	dy := int(clip(half-cy, -float64(size), float64(size)))
	return Translate(out, dx, dy)
}

// Translate shifts g by (dx, dy), filling uncovered pixels with zero.
func Translate(g *image.Gray, dx, dy int) *image.Gray {
	src := imgproc.Normalize(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := imgproc.NewGray(w, h)
	for y := 0; y < h; y++ {
		sy := y - dy
		if sy < 0 || sy >= h {
			continue
		}
		for x := 0; x < w; x++ {
			sx := x - dx
			if sx < 0 || sx >= w {
				continue
			}
			out.Pix[y*w+x] = src.Pix[sy*w+sx]
		}
	}
	return out
}

func redChannel(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := imgproc.NewGray(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*b.Dx()+x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
