package imgproc

import "image"

// GaussianBlur3 smooths g with the separable 3x3 binomial kernel
// [1 2 1]/4 (the sigma-free 3-tap Gaussian) using mirrored borders.
func GaussianBlur3(g *image.Gray) *image.Gray {
	src := Normalize(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := NewGray(w, h)
	if w == 0 || h == 0 {
		return out
	}

	// Horizontal pass keeps the x4 scale to avoid intermediate rounding.
	tmp := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*w : y*w+w]
		for x := 0; x < w; x++ {
			l := row[reflect101(x-1, w)]
			r := row[reflect101(x+1, w)]
			tmp[y*w+x] = uint16(l) + 2*uint16(row[x]) + uint16(r)
		}
	}
	for y := 0; y < h; y++ {
		up := reflect101(y-1, h) * w
		down := reflect101(y+1, h) * w
		for x := 0; x < w; x++ {
			s := uint32(tmp[up+x]) + 2*uint32(tmp[y*w+x]) + uint32(tmp[down+x])
			out.Pix[y*w+x] = uint8((s + 8) >> 4)
		}
	}
	return out
}
