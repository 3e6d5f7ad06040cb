package imgproc

import (
	"image"
	"math"
)

// Moments holds the zeroth and first order raw moments of an image or shape.
type Moments struct {
	M00, M10, M01 float64
}

// MomentEpsilon is the mass below which a centroid is considered undefined.
const MomentEpsilon = 1e-6

// Centroid returns (M10/M00, M01/M00) and false when |M00| <= MomentEpsilon.
func (m Moments) Centroid() (float64, float64, bool) {
	if math.Abs(m.M00) <= MomentEpsilon {
		return 0, 0, false
	}
	return m.M10 / m.M00, m.M01 / m.M00, true
}

// ImageMoments computes intensity-weighted moments with pixel coordinates
// measured from the image origin.
func ImageMoments(g *image.Gray) Moments {
	var m Moments
	b := g.Bounds()
	for y := 0; y < b.Dy(); y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		var rowSum, rowX float64
		for x, v := range g.Pix[off : off+b.Dx()] {
			if v == 0 {
				continue
			}
			f := float64(v)
			rowSum += f
			rowX += f * float64(x)
		}
		m.M00 += rowSum
		m.M10 += rowX
		m.M01 += rowSum * float64(y)
	}
	return m
}

// PolygonMoments computes the area moments of a closed polygon with Green's
// theorem. The sign follows the vertex orientation; the centroid does not
// depend on it.
func PolygonMoments(pts []image.Point) Moments {
	var m Moments
	n := len(pts)
	if n == 0 {
		return m
	}
	for i := 0; i < n; i++ {
		x0, y0 := float64(pts[i].X), float64(pts[i].Y)
		x1, y1 := float64(pts[(i+1)%n].X), float64(pts[(i+1)%n].Y)
		cross := x0*y1 - x1*y0
		m.M00 += cross
		m.M10 += (x0 + x1) * cross
		m.M01 += (y0 + y1) * cross
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	return m
}
