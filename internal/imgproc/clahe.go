package imgproc

import (
	"image"
	"math"
)

// CLAHEConfig parameterizes contrast-limited adaptive histogram equalization.
type CLAHEConfig struct {
	ClipLimit float64 // relative clip limit; <= 0 disables clipping
	TilesX    int
	TilesY    int
}

// DefaultCLAHEConfig returns clip 2.5 over an 8x8 tile grid.
func DefaultCLAHEConfig() CLAHEConfig {
	return CLAHEConfig{ClipLimit: 2.5, TilesX: 8, TilesY: 8}
}

// CLAHE equalizes g tile by tile. Each tile histogram is clipped at
// max(int(ClipLimit*tileArea/256), 1), the excess is redistributed evenly,
// and per-pixel output is bilinearly interpolated between the four nearest
// tile lookup tables. Images whose size is not a multiple of the grid are
// mirror-padded on the right and bottom for histogram collection.
func CLAHE(g *image.Gray, cfg CLAHEConfig) *image.Gray {
	src := Normalize(g)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return NewGray(w, h)
	}
	tx, ty := cfg.TilesX, cfg.TilesY
	if tx <= 0 {
		tx = 8
	}
	if ty <= 0 {
		ty = 8
	}

	pw, ph := w, h
	if w%tx != 0 {
		pw = w + tx - w%tx
	}
	if h%ty != 0 {
		ph = h + ty - h%ty
	}
	tileW, tileH := pw/tx, ph/ty
	tileArea := tileW * tileH

	clip := 0
	if cfg.ClipLimit > 0 {
		clip = int(cfg.ClipLimit * float64(tileArea) / 256)
		if clip < 1 {
			clip = 1
		}
	}

	luts := make([][256]uint8, tx*ty)
	lutScale := 255.0 / float64(tileArea)
	for j := 0; j < ty; j++ {
		for i := 0; i < tx; i++ {
			var hist [256]int
			for y := j * tileH; y < (j+1)*tileH; y++ {
				sy := reflect101(y, h)
				for x := i * tileW; x < (i+1)*tileW; x++ {
					hist[src.Pix[sy*w+reflect101(x, w)]]++
				}
			}
			if clip > 0 {
				clipHistogram(&hist, clip)
			}
			sum := 0
			lut := &luts[j*tx+i]
			for k := 0; k < 256; k++ {
				sum += hist[k]
				lut[k] = saturate(float64(sum) * lutScale)
			}
		}
	}

	out := NewGray(w, h)
	invTW, invTH := 1/float64(tileW), 1/float64(tileH)
	for y := 0; y < h; y++ {
		tyf := float64(y)*invTH - 0.5
		ty1 := int(math.Floor(tyf))
		ya := tyf - float64(ty1)
		ty2 := ty1 + 1
		ty1 = clampInt(ty1, 0, ty-1)
		ty2 = clampInt(ty2, 0, ty-1)
		for x := 0; x < w; x++ {
			txf := float64(x)*invTW - 0.5
			tx1 := int(math.Floor(txf))
			xa := txf - float64(tx1)
			tx2 := tx1 + 1
			tx1 = clampInt(tx1, 0, tx-1)
			tx2 = clampInt(tx2, 0, tx-1)

			p := src.Pix[y*w+x]
			top := float64(luts[ty1*tx+tx1][p])*(1-xa) + float64(luts[ty1*tx+tx2][p])*xa
			bot := float64(luts[ty2*tx+tx1][p])*(1-xa) + float64(luts[ty2*tx+tx2][p])*xa
			out.Pix[y*w+x] = saturate(top*(1-ya) + bot*ya)
		}
	}
	return out
}

// clipHistogram caps every bin at limit and spreads the clipped mass evenly,
// handing the remainder out one count at a time at a fixed stride.
func clipHistogram(hist *[256]int, limit int) {
	clipped := 0
	for i := range hist {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}
	batch := clipped / 256
	residual := clipped - batch*256
	for i := range hist {
		hist[i] += batch
	}
	if residual != 0 {
		step := 256 / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}
