package utils

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// EnsureColor returns an opaque 3-channel copy of img anchored at the
// origin. Grayscale input is expanded and any alpha channel is discarded
// without compositing.
func EnsureColor(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}

// ToGray converts img to 8-bit luma using the BT.601 weights
// 0.299 R + 0.587 G + 0.114 B.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		b := g.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:], g.Pix[off:off+b.Dx()])
		}
		return out
	}
	lum := imaging.Grayscale(img)
	b := lum.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := 0; i < b.Dx()*b.Dy(); i++ {
		out.Pix[i] = lum.Pix[i*4]
	}
	return out
}

// GrayToNRGBA expands a grayscale image into an opaque color image.
func GrayToNRGBA(g *image.Gray) *image.NRGBA {
	return EnsureColor(g)
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB") into an opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	if len(s) > 0 && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, &ImageProcessingError{Operation: "parse_color", Err: err}
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
