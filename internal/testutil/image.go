package testutil

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderOptions controls synthetic digit rendering.
type RenderOptions struct {
	Scale      int // nearest-neighbor upscale of the 7x13 bitmap font
	Gap        int // blank pixels between glyph cells
	Margin     int
	Background color.Color
	Foreground color.Color
}

// DefaultRenderOptions renders dark glyphs four times the font size on white.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Scale:      4,
		Gap:        12,
		Margin:     24,
		Background: color.White,
		Foreground: color.Black,
	}
}

// RenderDigits draws text with the basic bitmap font, one cell per rune.
func RenderDigits(text string, opts RenderOptions) *image.NRGBA {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	face := basicfont.Face7x13
	runes := []rune(text)
	cellW, cellH := face.Advance*opts.Scale, face.Height*opts.Scale

	w := 2*opts.Margin + len(runes)*cellW + max(len(runes)-1, 0)*opts.Gap
	h := 2*opts.Margin + cellH
	dst := imaging.New(w, h, opts.Background)
	fg := color.NRGBAModel.Convert(opts.Foreground).(color.NRGBA)

	for i, r := range runes {
		glyph := image.NewGray(image.Rect(0, 0, face.Advance, face.Height))
		d := font.Drawer{Dst: glyph, Src: image.White, Face: face, Dot: fixed.P(0, face.Ascent)}
		d.DrawString(string(r))
		scaled := imaging.Resize(glyph, cellW, cellH, imaging.NearestNeighbor)

		ox := opts.Margin + i*(cellW+opts.Gap)
		for y := 0; y < cellH; y++ {
			for x := 0; x < cellW; x++ {
				if scaled.Pix[y*scaled.Stride+x*4] > 127 {
					dst.SetNRGBA(ox+x, opts.Margin+y, fg)
				}
			}
		}
	}
	return dst
}

// GlyphBounds returns the ink bounding box of each rune cell as rendered by
// RenderDigits with the same options.
func GlyphBounds(text string, opts RenderOptions) []image.Rectangle {
	img := RenderDigits(text, opts)
	face := basicfont.Face7x13
	cellW, cellH := face.Advance*opts.Scale, face.Height*opts.Scale
	bg := color.NRGBAModel.Convert(opts.Background).(color.NRGBA)

	var out []image.Rectangle
	for i := range []rune(text) {
		ox := opts.Margin + i*(cellW+opts.Gap)
		box := image.Rectangle{}
		for y := opts.Margin; y < opts.Margin+cellH; y++ {
			for x := ox; x < ox+cellW; x++ {
				if img.NRGBAAt(x, y) != bg {
					box = box.Union(image.Rect(x, y, x+1, y+1))
				}
			}
		}
		out = append(out, box)
	}
	return out
}
