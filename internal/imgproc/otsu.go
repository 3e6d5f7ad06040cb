package imgproc

import "image"

// Histogram returns the 256-bin intensity histogram of g.
func Histogram(g *image.Gray) [256]int {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := g.PixOffset(b.Min.X, y)
		for _, v := range g.Pix[off : off+b.Dx()] {
			hist[v]++
		}
	}
	return hist
}

// OtsuThreshold returns the level t maximizing the between-class variance of
// the split {<= t} / {> t}. The first maximum wins. ok is false when fewer
// than two intensity levels are populated, so no split separates anything.
func OtsuThreshold(g *image.Gray) (t uint8, ok bool) {
	hist := Histogram(g)
	total := 0
	var sumAll float64
	for i, c := range hist {
		total += c
		sumAll += float64(i) * float64(c)
	}
	if total == 0 {
		return 0, false
	}

	var maxVariance, sumB float64
	best := 0
	wB := 0
	for level := 0; level < 256; level++ {
		wB += hist[level]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(level) * float64(hist[level])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		d := mB - mF
		between := float64(wB) * float64(wF) * d * d
		if between > maxVariance {
			maxVariance = between
			best = level
		}
	}
	return uint8(best), maxVariance > 0
}

// Threshold maps pixels > t to 255 and the rest to 0.
func Threshold(g *image.Gray, t uint8) *image.Gray {
	src := Normalize(g)
	out := NewGray(src.Rect.Dx(), src.Rect.Dy())
	for i, v := range src.Pix {
		if v > t {
			out.Pix[i] = 255
		}
	}
	return out
}
