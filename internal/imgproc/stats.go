package imgproc

import (
	"image"
	"math"
)

// MeanStdDev returns the mean and population standard deviation of g.
func MeanStdDev(g *image.Gray) (float64, float64) {
	b := g.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := g.PixOffset(b.Min.X, y)
		for _, v := range g.Pix[off : off+b.Dx()] {
			f := float64(v)
			sum += f
			sumSq += f * f
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// Mean returns the mean intensity of g.
func Mean(g *image.Gray) float64 {
	m, _ := MeanStdDev(g)
	return m
}

// MinMax returns the smallest and largest intensity in g.
func MinMax(g *image.Gray) (uint8, uint8) {
	b := g.Bounds()
	if b.Empty() {
		return 0, 0
	}
	lo, hi := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := g.PixOffset(b.Min.X, y)
		for _, v := range g.Pix[off : off+b.Dx()] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// StretchToFull linearly maps [min, max] of g onto [0, 255], truncating
// fractional results. Constant images are returned as a copy.
func StretchToFull(g *image.Gray) *image.Gray {
	src := Normalize(g)
	lo, hi := MinMax(src)
	out := Clone(src)
	if hi <= lo {
		return out
	}
	span := float64(hi - lo)
	for i, v := range src.Pix {
		out.Pix[i] = uint8(float64(v-lo) * 255 / span)
	}
	return out
}

// NormalizePolarity inverts g when its mean exceeds 127 so that foreground
// is bright on a dark background.
func NormalizePolarity(g *image.Gray) *image.Gray {
	if Mean(g) > 127 {
		return Invert(g)
	}
	return Clone(g)
}
