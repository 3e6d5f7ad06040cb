package features

import (
	"image"
	"math"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func halfImage(vertical bool) *image.Gray {
	g := imgproc.NewGray(InputSize, InputSize)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			if (vertical && x >= InputSize/2) || (!vertical && y >= InputSize/2) {
				g.Pix[y*g.Stride+x] = 255
			}
		}
	}
	return g
}

func blockNorms(desc []float64, blockLen int) []float64 {
	var norms []float64
	for i := 0; i < len(desc); i += blockLen {
		var s float64
		for _, v := range desc[i : i+blockLen] {
			s += v * v
		}
		norms = append(norms, math.Sqrt(s))
	}
	return norms
}

func TestDefaultParams_Length(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 1296, p.Length())

	desc, err := Extract(imgproc.NewGray(InputSize, InputSize), p)
	require.NoError(t, err)
	assert.Len(t, desc, 1296)
}

func TestExtract_BlankImageIsZero(t *testing.T) {
	desc, err := Extract(imgproc.NewGray(InputSize, InputSize), DefaultParams())
	require.NoError(t, err)
	for _, v := range desc {
		assert.Zero(t, v)
	}
}

func TestExtract_VerticalEdgeFallsInFirstBin(t *testing.T) {
	desc, err := Extract(halfImage(true), DefaultParams())
	require.NoError(t, err)

	var energy float64
	for i, v := range desc {
		if i%9 != 0 {
			assert.Zero(t, v, "index %d", i)
		}
		energy += v
	}
	assert.Positive(t, energy)
}

func TestExtract_HorizontalEdgeFallsInMiddleBin(t *testing.T) {
	desc, err := Extract(halfImage(false), DefaultParams())
	require.NoError(t, err)

	var energy float64
	for i, v := range desc {
		if i%9 != 4 {
			assert.Zero(t, v, "index %d", i)
		}
		energy += v
	}
	assert.Positive(t, energy)
}

func TestExtract_BlockNormalization(t *testing.T) {
	img := halfImage(true)
	p := DefaultParams()
	blockLen := p.CellsPerBlock[0] * p.CellsPerBlock[1] * p.Orientations

	t.Run("L2 blocks have unit norm", func(t *testing.T) {
		p := p
		p.BlockNorm = NormL2
		desc, err := Extract(img, p)
		require.NoError(t, err)
		for _, n := range blockNorms(desc, blockLen) {
			if n > 0 {
				assert.InDelta(t, 1.0, n, 1e-6)
			}
		}
	})

	t.Run("L1 blocks sum to one", func(t *testing.T) {
		p := p
		p.BlockNorm = NormL1
		desc, err := Extract(img, p)
		require.NoError(t, err)
		for i := 0; i < len(desc); i += blockLen {
			var s float64
			for _, v := range desc[i : i+blockLen] {
				s += v
			}
			if s > 0 {
				assert.InDelta(t, 1.0, s, 1e-6)
			}
		}
	})

	t.Run("L2-Hys clips before renormalizing", func(t *testing.T) {
		desc, err := Extract(img, p)
		require.NoError(t, err)
		for _, n := range blockNorms(desc, blockLen) {
			if n > 0 {
				assert.InDelta(t, 1.0, n, 1e-6)
			}
		}
	})
}

func TestExtract_ResizesOtherSizes(t *testing.T) {
	g := imgproc.NewGray(56, 40)
	for i := range g.Pix {
		g.Pix[i] = uint8(i % 251)
	}
	desc, err := Extract(g, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, desc, 1296)
}

func TestExtract_InvalidParams(t *testing.T) {
	img := halfImage(true)
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero orientations", func(p *Params) { p.Orientations = 0 }},
		{"zero cell", func(p *Params) { p.PixelsPerCell = [2]int{0, 4} }},
		{"block larger than grid", func(p *Params) { p.PixelsPerCell = [2]int{16, 16} }},
		{"unknown norm", func(p *Params) { p.BlockNorm = "L3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := Extract(img, p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}

	_, err := Extract(imgproc.NewGray(0, 0), DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestParams_Merge(t *testing.T) {
	orient := 12
	norm := NormL1
	ppc := [2]int{7, 7}
	p := DefaultParams().Merge(&Overrides{Orientations: &orient, BlockNorm: &norm, PixelsPerCell: &ppc})

	assert.Equal(t, 12, p.Orientations)
	assert.Equal(t, NormL1, p.BlockNorm)
	assert.Equal(t, [2]int{7, 7}, p.PixelsPerCell)
	assert.Equal(t, [2]int{2, 2}, p.CellsPerBlock)
	assert.True(t, p.TransformSqrt)

	assert.Equal(t, DefaultParams(), DefaultParams().Merge(nil))
}

func TestOrientationBin(t *testing.T) {
	assert.Equal(t, 0, orientationBin(0, 20, 9))
	assert.Equal(t, 0, orientationBin(19.999, 20, 9))
	assert.Equal(t, 1, orientationBin(20, 20, 9))
	assert.Equal(t, 8, orientationBin(179.99, 20, 9))
	assert.Equal(t, -1, orientationBin(180, 20, 9))
}

func TestExtract_ValuesBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("L2-Hys descriptor values stay in [0, 1]", prop.ForAll(
		func(seed int) bool {
			g := imgproc.NewGray(InputSize, InputSize)
			for i := range g.Pix {
				g.Pix[i] = uint8((i*seed + i*i*13 + seed) % 256)
			}
			desc, err := Extract(g, DefaultParams())
			if err != nil || len(desc) != 1296 {
				return false
			}
			for _, v := range desc {
				if math.IsNaN(v) || v < 0 || v > 1+1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5000),
	))

	properties.TestingRun(t)
}
