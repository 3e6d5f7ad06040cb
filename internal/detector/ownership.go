package detector

import (
	"image"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
)

type point struct{ x, y float64 }

// ownershipMask marks the pixels of rect (image coordinates) that are closer
// to own than to any other centroid by a squared-distance margin:
//
//	dist²(P, own) <= min dist²(P, other) - margin²
//
// Without other centroids, or with a non-positive margin, every pixel is owned.
func ownershipMask(rect image.Rectangle, own point, others []point, margin float64) *image.Gray {
	w, h := rect.Dx(), rect.Dy()
	out := imgproc.NewGray(max(w, 0), max(h, 0))
	if w <= 0 || h <= 0 {
		return out
	}
	if margin <= 0 || len(others) == 0 {
		for i := range out.Pix {
			out.Pix[i] = 255
		}
		return out
	}
	marginSq := margin * margin
	for y := 0; y < h; y++ {
		py := float64(rect.Min.Y + y)
		for x := 0; x < w; x++ {
			px := float64(rect.Min.X + x)
			dx, dy := px-own.x, py-own.y
			cur := dx*dx + dy*dy
			nearest := -1.0
			for _, o := range others {
				ox, oy := px-o.x, py-o.y
				if d := ox*ox + oy*oy; nearest < 0 || d < nearest {
					nearest = d
				}
			}
			if cur <= nearest-marginSq {
				out.Pix[y*w+x] = 255
			}
		}
	}
	return out
}

// regionMaskIn draws the filled region into a mask covering rect.
func regionMaskIn(r region, rect image.Rectangle) *image.Gray {
	w, h := rect.Dx(), rect.Dy()
	out := imgproc.NewGray(w, h)
	bw := r.box.Dx()
	inter := r.box.Intersect(rect)
	for y := inter.Min.Y; y < inter.Max.Y; y++ {
		for x := inter.Min.X; x < inter.Max.X; x++ {
			if r.filled.Pix[(y-r.box.Min.Y)*bw+(x-r.box.Min.X)] != 0 {
				out.Pix[(y-rect.Min.Y)*w+(x-rect.Min.X)] = 255
			}
		}
	}
	return out
}

func andMasks(a, b *image.Gray) *image.Gray {
	out := imgproc.NewGray(a.Rect.Dx(), a.Rect.Dy())
	for i := range a.Pix {
		if a.Pix[i] != 0 && b.Pix[i] != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

func anyNonZero(g *image.Gray) bool {
	for _, v := range g.Pix {
		if v != 0 {
			return true
		}
	}
	return false
}
