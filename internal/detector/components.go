package detector

import (
	"image"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/MeKo-Tech/digitread/internal/mempool"
)

// region is one outer foreground shape of the mask.
type region struct {
	label   int32
	box     image.Rectangle // tight bounds, Max exclusive
	count   int
	filled  *image.Gray // box-sized; 255 inside the outer contour, holes included
	contour []image.Point
	cx, cy  float64
}

// compStats represents statistics for a connected component.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

func (c compStats) rect() image.Rectangle {
	return image.Rect(c.minX, c.minY, c.maxX+1, c.maxY+1)
}

var (
	dirs8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	dirs4 = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

// connectedComponents labels 8-connected foreground pixels of mask starting
// at 1 in raster order of each component's first pixel. The label map is
// pooled; release it with mempool.PutInt32.
func connectedComponents(mask *image.Gray) ([]compStats, []int32) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	labels := mempool.GetInt32(w * h)
	var comps []compStats
	queue := make([]int, 0, 256)
	label := int32(1)

	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask.Pix[idx] == 0 || labels[idx] != 0 {
				continue
			}
			st := compStats{minX: x, minY: y, maxX: x, maxY: y}
			labels[idx] = label
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				ci := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := ci%w, ci/w
				updateComponentStats(&st, cx, cy)
				for _, d := range dirs8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask.Pix[ni] != 0 && labels[ni] == 0 {
						labels[ni] = label
						queue = append(queue, ni)
					}
				}
			}
			comps = append(comps, st)
			label++
		}
	}
	return comps, labels
}

// updateComponentStats updates the component statistics with a new pixel.
func updateComponentStats(st *compStats, cx, cy int) {
	st.count++
	if cx < st.minX {
		st.minX = cx
	}
	if cy < st.minY {
		st.minY = cy
	}
	if cx > st.maxX {
		st.maxX = cx
	}
	if cy > st.maxY {
		st.maxY = cy
	}
}

// fillComponent returns the component's box-local mask with enclosed holes
// filled, plus the labels of other components lying inside those holes.
// Holes are background pixels not 4-connected to the box border.
func fillComponent(labels []int32, w int, label int32, box image.Rectangle) (*image.Gray, []int32) {
	bw, bh := box.Dx(), box.Dy()
	outside := mempool.GetBool(bw * bh)
	defer mempool.PutBool(outside)

	at := func(x, y int) int32 { return labels[(box.Min.Y+y)*w+box.Min.X+x] }
	queue := make([]int, 0, 2*(bw+bh))
	seed := func(x, y int) {
		i := y*bw + x
		if !outside[i] && at(x, y) != label {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < bw; x++ {
		seed(x, 0)
		seed(x, bh-1)
	}
	for y := 0; y < bh; y++ {
		seed(0, y)
		seed(bw-1, y)
	}
	for len(queue) > 0 {
		ci := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cx, cy := ci%bw, ci/bw
		for _, d := range dirs4 {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= bw || ny >= bh {
				continue
			}
			seed(nx, ny)
		}
	}

	filled := imgproc.NewGray(bw, bh)
	var nested []int32
	seen := map[int32]bool{}
	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			i := y*bw + x
			if outside[i] {
				continue
			}
			filled.Pix[i] = 255
			if l := at(x, y); l != 0 && l != label && !seen[l] {
				seen[l] = true
				nested = append(nested, l)
			}
		}
	}
	return filled, nested
}

// extractRegions finds the outer shapes of mask: 8-connected components
// with holes filled. Components enclosed by another component are absorbed
// into it. Regions come back in discovery (raster) order with contour and
// centroid populated.
func extractRegions(mask *image.Gray) []region {
	mask = imgproc.Normalize(mask)
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	comps, labels := connectedComponents(mask)
	defer mempool.PutInt32(labels)

	absorbed := make([]bool, len(comps)+1)
	regions := make([]region, 0, len(comps))
	for i, c := range comps {
		label := int32(i + 1)
		if absorbed[label] {
			continue
		}
		box := c.rect()
		filled, nested := fillComponent(labels, w, label, box)
		for _, l := range nested {
			absorbed[l] = true
		}
		r := region{label: label, box: box, count: c.count, filled: filled}
		r.contour = traceContourMoore(labels, w, h, label, c)
		r.cx, r.cy = regionCentroid(r)
		regions = append(regions, r)
	}
	return regions
}

// regionCentroid uses the contour polygon moments and falls back to the
// box center for degenerate (zero-area) contours.
func regionCentroid(r region) (float64, float64) {
	if cx, cy, ok := imgproc.PolygonMoments(r.contour).Centroid(); ok {
		return cx, cy
	}
	return float64(r.box.Min.X) + float64(r.box.Dx())/2, float64(r.box.Min.Y) + float64(r.box.Dy())/2
}
