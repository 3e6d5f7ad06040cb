package imgproc

import "image"

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // Erode then Dilate - removes small noise
	MorphClosing // Dilate then Erode - fills gaps
)

// MorphConfig holds configuration for a rectangular structuring element.
type MorphConfig struct {
	Operation    MorphologicalOp
	KernelWidth  int
	KernelHeight int
	Iterations   int
}

// ApplyMorphology applies the configured operation to g. The kernel anchor is
// its center cell (k/2), so a kernel of width k covers x-k/2 .. x-k/2+k-1.
// Pixels outside the image never contribute to the min or max.
func ApplyMorphology(g *image.Gray, cfg MorphConfig) *image.Gray {
	if cfg.Operation == MorphNone || cfg.KernelWidth <= 0 || cfg.KernelHeight <= 0 || cfg.Iterations <= 0 {
		return Clone(g)
	}

	result := Normalize(g)
	for i := 0; i < cfg.Iterations; i++ {
		switch cfg.Operation {
		case MorphDilate:
			result = Dilate(result, cfg.KernelWidth, cfg.KernelHeight)
		case MorphErode:
			result = Erode(result, cfg.KernelWidth, cfg.KernelHeight)
		case MorphOpening:
			result = Dilate(Erode(result, cfg.KernelWidth, cfg.KernelHeight), cfg.KernelWidth, cfg.KernelHeight)
		case MorphClosing:
			result = Erode(Dilate(result, cfg.KernelWidth, cfg.KernelHeight), cfg.KernelWidth, cfg.KernelHeight)
		}
	}
	return result
}

// Dilate expands bright regions with a kw x kh rectangle.
func Dilate(g *image.Gray, kw, kh int) *image.Gray {
	return rankFilter(g, kw, kh, func(a, b uint8) bool { return a > b }, 0)
}

// Erode shrinks bright regions with a kw x kh rectangle.
func Erode(g *image.Gray, kw, kh int) *image.Gray {
	return rankFilter(g, kw, kh, func(a, b uint8) bool { return a < b }, 255)
}

// Close performs dilation followed by erosion.
func Close(g *image.Gray, kw, kh int) *image.Gray {
	return Erode(Dilate(g, kw, kh), kw, kh)
}

// rankFilter is a separable min/max filter. better(a, b) reports whether a
// replaces the running extreme b; init is the identity value.
func rankFilter(g *image.Gray, kw, kh int, better func(a, b uint8) bool, init uint8) *image.Gray {
	src := Normalize(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if kw <= 1 && kh <= 1 {
		return Clone(src)
	}
	ax, ay := kw/2, kh/2

	tmp := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*w : y*w+w]
		for x := 0; x < w; x++ {
			v := init
			x0 := clampInt(x-ax, 0, w)
			x1 := clampInt(x-ax+kw, 0, w)
			for k := x0; k < x1; k++ {
				if better(row[k], v) {
					v = row[k]
				}
			}
			tmp[y*w+x] = v
		}
	}

	out := NewGray(w, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			v := init
			y0 := clampInt(y-ay, 0, h)
			y1 := clampInt(y-ay+kh, 0, h)
			for k := y0; k < y1; k++ {
				if better(tmp[k*w+x], v) {
					v = tmp[k*w+x]
				}
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}
