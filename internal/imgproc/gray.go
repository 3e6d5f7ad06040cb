// Package imgproc implements the grayscale primitives used by the digit
// pipeline: smoothing, rectangular morphology, CLAHE, Otsu thresholding,
// image and contour moments, and intensity statistics.
//
// All functions take and return *image.Gray images anchored at the origin
// and never modify their inputs.
package imgproc

import (
	"image"
)

// NewGray allocates a zeroed grayscale image of the given size.
func NewGray(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

// Clone returns a copy of g re-anchored at the origin.
func Clone(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := NewGray(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		so := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[so:so+b.Dx()])
	}
	return out
}

// Normalize returns g unchanged when it is already compact and anchored at
// the origin, otherwise a compact copy.
func Normalize(g *image.Gray) *image.Gray {
	b := g.Bounds()
	if b.Min.X == 0 && b.Min.Y == 0 && g.Stride == b.Dx() {
		return g
	}
	return Clone(g)
}

// Empty reports whether g has no pixels.
func Empty(g *image.Gray) bool {
	return g == nil || g.Bounds().Empty()
}

// Invert returns 255 - g for every pixel.
func Invert(g *image.Gray) *image.Gray {
	src := Normalize(g)
	out := NewGray(src.Rect.Dx(), src.Rect.Dy())
	for i, v := range src.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// SubtractSaturate returns max(a - b, 0) per pixel. Both images must have the
// same size.
func SubtractSaturate(a, b *image.Gray) *image.Gray {
	a, b = Normalize(a), Normalize(b)
	out := NewGray(a.Rect.Dx(), a.Rect.Dy())
	for i := range a.Pix {
		if a.Pix[i] > b.Pix[i] {
			out.Pix[i] = a.Pix[i] - b.Pix[i]
		}
	}
	return out
}

// MaskGray keeps pixels of g where mask is non-zero and zeroes the rest.
func MaskGray(g, mask *image.Gray) *image.Gray {
	g, mask = Normalize(g), Normalize(mask)
	out := NewGray(g.Rect.Dx(), g.Rect.Dy())
	for i := range g.Pix {
		if mask.Pix[i] != 0 {
			out.Pix[i] = g.Pix[i]
		}
	}
	return out
}

// Crop copies the rectangle r (clipped to g) into a new origin-anchored image.
func Crop(g *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return NewGray(0, 0)
	}
	sub, ok := g.SubImage(r).(*image.Gray)
	if !ok {
		return NewGray(0, 0)
	}
	return Clone(sub)
}

// reflect101 maps an out-of-range index into [0, n) mirroring around the
// edge pixels without repeating them (…, 2, 1 | 0, 1, 2, … n-1 | n-2, …).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// saturate rounds v half away from zero and clamps it to the uint8 range.
func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
