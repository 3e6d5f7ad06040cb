package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(w, h int, v uint8) *image.Gray {
	g := NewGray(w, h)
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func countNonZero(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestGaussianBlur3(t *testing.T) {
	t.Run("constant image unchanged", func(t *testing.T) {
		out := GaussianBlur3(filled(6, 4, 90))
		for _, v := range out.Pix {
			assert.Equal(t, uint8(90), v)
		}
	})

	t.Run("impulse response", func(t *testing.T) {
		g := NewGray(5, 5)
		g.SetGray(2, 2, color.Gray{Y: 255})
		out := GaussianBlur3(g)
		assert.Equal(t, uint8(64), out.GrayAt(2, 2).Y)
		assert.Equal(t, uint8(32), out.GrayAt(3, 2).Y)
		assert.Equal(t, uint8(32), out.GrayAt(2, 1).Y)
		assert.Equal(t, uint8(16), out.GrayAt(3, 3).Y)
		assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	})

	t.Run("empty image", func(t *testing.T) {
		out := GaussianBlur3(NewGray(0, 0))
		assert.True(t, Empty(out))
	})
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 2, reflect101(-2, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 2, reflect101(6, 5))
	assert.Equal(t, 0, reflect101(-3, 1))
	assert.Equal(t, 1, reflect101(-1, 2))
}

func TestMorphology(t *testing.T) {
	t.Run("dilate grows a pixel into the kernel footprint", func(t *testing.T) {
		g := NewGray(7, 7)
		g.SetGray(3, 3, color.Gray{Y: 255})
		out := Dilate(g, 3, 3)
		assert.Equal(t, 9, countNonZero(out))
		assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)
		assert.Equal(t, uint8(255), out.GrayAt(4, 4).Y)
	})

	t.Run("opening removes isolated pixels and keeps blocks", func(t *testing.T) {
		g := NewGray(12, 12)
		g.SetGray(1, 1, color.Gray{Y: 255})
		for y := 5; y < 9; y++ {
			for x := 5; x < 9; x++ {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
		out := ApplyMorphology(g, MorphConfig{Operation: MorphOpening, KernelWidth: 2, KernelHeight: 2, Iterations: 1})
		assert.Equal(t, uint8(0), out.GrayAt(1, 1).Y)
		assert.Equal(t, 16, countNonZero(out))
	})

	t.Run("closing fills thin dark gaps", func(t *testing.T) {
		g := filled(40, 40, 200)
		for y := 0; y < 40; y++ {
			for x := 18; x < 21; x++ {
				g.SetGray(x, y, color.Gray{Y: 10})
			}
		}
		out := Close(g, 25, 25)
		for _, v := range out.Pix {
			require.Equal(t, uint8(200), v)
		}
	})

	t.Run("none returns a copy", func(t *testing.T) {
		g := filled(3, 3, 7)
		out := ApplyMorphology(g, MorphConfig{Operation: MorphNone})
		assert.Equal(t, g.Pix, out.Pix)
		out.Pix[0] = 1
		assert.Equal(t, uint8(7), g.Pix[0])
	})
}

func TestCLAHE(t *testing.T) {
	t.Run("constant input stays constant", func(t *testing.T) {
		out := CLAHE(filled(64, 64, 120), DefaultCLAHEConfig())
		first := out.Pix[0]
		for _, v := range out.Pix {
			require.Equal(t, first, v)
		}
	})

	t.Run("non divisible size keeps dimensions", func(t *testing.T) {
		g := NewGray(37, 29)
		for i := range g.Pix {
			g.Pix[i] = uint8(i % 251)
		}
		out := CLAHE(g, DefaultCLAHEConfig())
		assert.Equal(t, 37, out.Bounds().Dx())
		assert.Equal(t, 29, out.Bounds().Dy())
	})

	t.Run("low contrast is stretched", func(t *testing.T) {
		g := NewGray(64, 64)
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				g.SetGray(x, y, color.Gray{Y: uint8(100 + (x*7+y*3)%16)})
			}
		}
		_, before := MeanStdDev(g)
		_, after := MeanStdDev(CLAHE(g, DefaultCLAHEConfig()))
		assert.Greater(t, after, before)
	})
}

func TestClipHistogram(t *testing.T) {
	var hist [256]int
	hist[10] = 300
	clipHistogram(&hist, 10)
	total := 0
	for _, c := range hist {
		total += c
	}
	assert.Equal(t, 300, total)
	assert.LessOrEqual(t, hist[10], 12)
}

func TestOtsu(t *testing.T) {
	g := NewGray(20, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			v := uint8(50)
			if x >= 10 {
				v = 200
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	th, ok := OtsuThreshold(g)
	require.True(t, ok)
	assert.GreaterOrEqual(t, th, uint8(50))
	assert.Less(t, th, uint8(200))

	bin := Threshold(g, th)
	assert.Equal(t, 100, countNonZero(bin))
	assert.Equal(t, uint8(255), bin.GrayAt(15, 5).Y)

	_, ok = OtsuThreshold(NewGray(0, 0))
	assert.False(t, ok)
	_, ok = OtsuThreshold(filled(16, 16, 34))
	assert.False(t, ok, "a constant frame has no split")
}

func TestMoments(t *testing.T) {
	square := []image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	m := PolygonMoments(square)
	assert.InDelta(t, 100, m.M00, 1e-9)
	cx, cy, ok := m.Centroid()
	require.True(t, ok)
	assert.InDelta(t, 5, cx, 1e-9)
	assert.InDelta(t, 5, cy, 1e-9)

	reversed := []image.Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	rcx, rcy, ok := PolygonMoments(reversed).Centroid()
	require.True(t, ok)
	assert.InDelta(t, 5, rcx, 1e-9)
	assert.InDelta(t, 5, rcy, 1e-9)

	_, _, ok = PolygonMoments([]image.Point{{3, 3}}).Centroid()
	assert.False(t, ok)

	g := NewGray(8, 8)
	g.SetGray(3, 4, color.Gray{Y: 200})
	cx, cy, ok = ImageMoments(g).Centroid()
	require.True(t, ok)
	assert.InDelta(t, 3, cx, 1e-9)
	assert.InDelta(t, 4, cy, 1e-9)

	_, _, ok = ImageMoments(NewGray(4, 4)).Centroid()
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	g := NewGray(2, 1)
	g.Pix[1] = 255
	mean, std := MeanStdDev(g)
	assert.InDelta(t, 127.5, mean, 1e-9)
	assert.InDelta(t, 127.5, std, 1e-9)

	ramp := NewGray(51, 1)
	for i := range ramp.Pix {
		ramp.Pix[i] = uint8(100 + i)
	}
	lo, hi := MinMax(StretchToFull(ramp))
	assert.Equal(t, uint8(0), lo)
	assert.Equal(t, uint8(255), hi)

	assert.Equal(t, uint8(5), NormalizePolarity(filled(3, 3, 250)).Pix[0])
	assert.Equal(t, uint8(20), NormalizePolarity(filled(3, 3, 20)).Pix[0])
}

func TestCropAndMask(t *testing.T) {
	g := NewGray(10, 10)
	for i := range g.Pix {
		g.Pix[i] = uint8(i)
	}
	c := Crop(g, image.Rect(2, 3, 5, 6))
	assert.Equal(t, image.Rect(0, 0, 3, 3), c.Bounds())
	assert.Equal(t, uint8(32), c.GrayAt(0, 0).Y)
	assert.True(t, Empty(Crop(g, image.Rect(20, 20, 30, 30))))

	mask := NewGray(3, 3)
	mask.Pix[4] = 255
	masked := MaskGray(c, mask)
	assert.Equal(t, 1, countNonZero(masked))
	assert.Equal(t, c.Pix[4], masked.Pix[4])

	diff := SubtractSaturate(filled(2, 2, 10), filled(2, 2, 30))
	assert.Equal(t, 0, countNonZero(diff))
}
