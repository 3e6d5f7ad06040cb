// Package features computes histogram-of-oriented-gradients descriptors for
// canonical digit crops.
package features

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/MeKo-Tech/digitread/internal/mempool"
	"github.com/disintegration/imaging"
)

// InputSize is the side of the square image descriptors are computed on.
const InputSize = 28

// Block normalization methods.
const (
	NormL1     = "L1"
	NormL1Sqrt = "L1-sqrt"
	NormL2     = "L2"
	NormL2Hys  = "L2-Hys"
)

const normEps = 1e-5

// ErrInvalidParams is returned when the HOG geometry does not fit the input.
var ErrInvalidParams = errors.New("invalid HOG parameters")

// Params describes the HOG geometry and normalization.
type Params struct {
	Orientations  int    `yaml:"orientations" json:"orientations"`
	PixelsPerCell [2]int `yaml:"pixels_per_cell" json:"pixels_per_cell"` // rows, cols
	CellsPerBlock [2]int `yaml:"cells_per_block" json:"cells_per_block"` // rows, cols
	TransformSqrt bool   `yaml:"transform_sqrt" json:"transform_sqrt"`
	BlockNorm     string `yaml:"block_norm" json:"block_norm"`
}

// DefaultParams returns 4x4 cells, 2x2 blocks, 9 orientations, square-root
// compression and L2-Hys normalization.
func DefaultParams() Params {
	return Params{
		Orientations:  9,
		PixelsPerCell: [2]int{4, 4},
		CellsPerBlock: [2]int{2, 2},
		TransformSqrt: true,
		BlockNorm:     NormL2Hys,
	}
}

// Overrides carries optional per-model replacements for Params fields.
type Overrides struct {
	Orientations  *int    `yaml:"orientations,omitempty" json:"orientations,omitempty"`
	PixelsPerCell *[2]int `yaml:"pixels_per_cell,omitempty" json:"pixels_per_cell,omitempty"`
	CellsPerBlock *[2]int `yaml:"cells_per_block,omitempty" json:"cells_per_block,omitempty"`
	TransformSqrt *bool   `yaml:"transform_sqrt,omitempty" json:"transform_sqrt,omitempty"`
	BlockNorm     *string `yaml:"block_norm,omitempty" json:"block_norm,omitempty"`
}

// Merge returns p with every field set in o replaced.
func (p Params) Merge(o *Overrides) Params {
	if o == nil {
		return p
	}
	if o.Orientations != nil {
		p.Orientations = *o.Orientations
	}
	if o.PixelsPerCell != nil {
		p.PixelsPerCell = *o.PixelsPerCell
	}
	if o.CellsPerBlock != nil {
		p.CellsPerBlock = *o.CellsPerBlock
	}
	if o.TransformSqrt != nil {
		p.TransformSqrt = *o.TransformSqrt
	}
	if o.BlockNorm != nil {
		p.BlockNorm = *o.BlockNorm
	}
	return p
}

// Validate checks the parameters against an InputSize x InputSize image.
func (p Params) Validate() error {
	if p.Orientations <= 0 {
		return fmt.Errorf("%w: orientations must be positive, got %d", ErrInvalidParams, p.Orientations)
	}
	for i := range 2 {
		if p.PixelsPerCell[i] <= 0 || p.CellsPerBlock[i] <= 0 {
			return fmt.Errorf("%w: cell and block sizes must be positive", ErrInvalidParams)
		}
		if InputSize/p.PixelsPerCell[i] < p.CellsPerBlock[i] {
			return fmt.Errorf("%w: block of %d cells does not fit %d cells", ErrInvalidParams,
				p.CellsPerBlock[i], InputSize/p.PixelsPerCell[i])
		}
	}
	switch p.BlockNorm {
	case NormL1, NormL1Sqrt, NormL2, NormL2Hys:
	default:
		return fmt.Errorf("%w: unknown block_norm %q", ErrInvalidParams, p.BlockNorm)
	}
	return nil
}

// Length returns the descriptor length for an InputSize square image.
func (p Params) Length() int {
	nCellsR, nCellsC := InputSize/p.PixelsPerCell[0], InputSize/p.PixelsPerCell[1]
	nBlocksR, nBlocksC := nCellsR-p.CellsPerBlock[0]+1, nCellsC-p.CellsPerBlock[1]+1
	return nBlocksR * nBlocksC * p.CellsPerBlock[0] * p.CellsPerBlock[1] * p.Orientations
}

// Extract computes the HOG descriptor of crop. Crops that are not
// InputSize x InputSize are first resized with an area filter.
//
// Gradients are centered differences with zero rows/columns on the image
// border, orientations are unsigned in [0, 180), each cell histogram is the
// magnitude sum divided by the cell area, and overlapping blocks are
// normalized independently. Values are ordered block row, block column,
// cell row, cell column, orientation.
func Extract(crop *image.Gray, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if imgproc.Empty(crop) {
		return nil, fmt.Errorf("%w: empty crop", ErrInvalidParams)
	}
	img := imgproc.Normalize(crop)
	if img.Rect.Dx() != InputSize || img.Rect.Dy() != InputSize {
		img = toGray(imaging.Resize(img, InputSize, InputSize, imaging.Box))
	}

	const n = InputSize
	values := mempool.GetFloat64(n * n)
	defer mempool.PutFloat64(values)
	for i, v := range img.Pix {
		values[i] = float64(v)
		if p.TransformSqrt {
			values[i] = math.Sqrt(values[i])
		}
	}

	mag := mempool.GetFloat64(n * n)
	defer mempool.PutFloat64(mag)
	ori := mempool.GetFloat64(n * n)
	defer mempool.PutFloat64(ori)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			var gr, gc float64
			if r > 0 && r < n-1 {
				gr = values[(r+1)*n+c] - values[(r-1)*n+c]
			}
			if c > 0 && c < n-1 {
				gc = values[r*n+c+1] - values[r*n+c-1]
			}
			mag[r*n+c] = math.Hypot(gc, gr)
			o := math.Atan2(gr, gc) * 180 / math.Pi
			o = math.Mod(o, 180)
			if o < 0 {
				o += 180
			}
			ori[r*n+c] = o
		}
	}

	hist := cellHistograms(mag, ori, n, p)
	return normalizeBlocks(hist, n/p.PixelsPerCell[0], n/p.PixelsPerCell[1], p), nil
}

// cellHistograms returns a [cellRow][cellCol][orientation] histogram
// flattened row-major.
func cellHistograms(mag, ori []float64, n int, p Params) []float64 {
	cr, cc := p.PixelsPerCell[0], p.PixelsPerCell[1]
	nCellsR, nCellsC := n/cr, n/cc
	bins := p.Orientations
	step := 180 / float64(bins)
	hist := make([]float64, nCellsR*nCellsC*bins)
	area := float64(cr * cc)

	for i := 0; i < nCellsR; i++ {
		for j := 0; j < nCellsC; j++ {
			base := (i*nCellsC + j) * bins
			for r := i * cr; r < (i+1)*cr; r++ {
				for c := j * cc; c < (j+1)*cc; c++ {
					b := orientationBin(ori[r*n+c], step, bins)
					if b < 0 {
						continue
					}
					hist[base+b] += mag[r*n+c]
				}
			}
			for b := 0; b < bins; b++ {
				hist[base+b] /= area
			}
		}
	}
	return hist
}

// orientationBin returns the bin b with step*b <= o < step*(b+1), or -1.
func orientationBin(o, step float64, bins int) int {
	b := int(o / step)
	if b < bins && o >= step*float64(b+1) {
		b++
	}
	if b > 0 && o < step*float64(b) {
		b--
	}
	if b < 0 || b >= bins {
		return -1
	}
	return b
}

func normalizeBlocks(hist []float64, nCellsR, nCellsC int, p Params) []float64 {
	br, bc := p.CellsPerBlock[0], p.CellsPerBlock[1]
	bins := p.Orientations
	nBlocksR, nBlocksC := nCellsR-br+1, nCellsC-bc+1
	blockLen := br * bc * bins
	out := make([]float64, 0, nBlocksR*nBlocksC*blockLen)
	block := make([]float64, blockLen)

	for r := 0; r < nBlocksR; r++ {
		for c := 0; c < nBlocksC; c++ {
			k := 0
			for i := 0; i < br; i++ {
				for j := 0; j < bc; j++ {
					base := ((r+i)*nCellsC + (c + j)) * bins
					copy(block[k:k+bins], hist[base:base+bins])
					k += bins
				}
			}
			normalizeBlock(block, p.BlockNorm)
			out = append(out, block...)
		}
	}
	return out
}

func normalizeBlock(block []float64, method string) {
	switch method {
	case NormL1, NormL1Sqrt:
		var s float64
		for _, v := range block {
			s += math.Abs(v)
		}
		for i := range block {
			block[i] /= s + normEps
			if method == NormL1Sqrt {
				block[i] = math.Sqrt(block[i])
			}
		}
	case NormL2:
		scaleL2(block)
	case NormL2Hys:
		scaleL2(block)
		for i := range block {
			block[i] = math.Min(block[i], 0.2)
		}
		scaleL2(block)
	}
}

func scaleL2(block []float64) {
	var s float64
	for _, v := range block {
		s += v * v
	}
	d := math.Sqrt(s + normEps*normEps)
	for i := range block {
		block[i] /= d
	}
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := imgproc.NewGray(b.Dx(), b.Dy())
	for i := range out.Pix {
		out.Pix[i] = img.Pix[i*4]
	}
	return out
}
