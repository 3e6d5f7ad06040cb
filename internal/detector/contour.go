package detector

import "image"

// 8-neighbourhood in clockwise order (image y grows downward):
// E, SE, S, SW, W, NW, N, NE.
var (
	ndx = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// traceContourMoore returns the outer boundary of the labeled component as
// pixel-center vertices using Moore-neighbour tracing. Straight runs are
// collapsed to their end points.
func traceContourMoore(labels []int32, w, h int, label int32, st compStats) []image.Point {
	if label <= 0 || len(labels) < w*h {
		return nil
	}
	sx, sy := findStartingPixel(labels, w, label, st)
	if sx < 0 {
		return nil
	}

	pts := make([]image.Point, 0, 64)
	addPoint := func(p image.Point) {
		n := len(pts)
		if n > 0 && pts[n-1] == p {
			return
		}
		if n >= 2 {
			a, b := pts[n-2], pts[n-1]
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	bx, by := sx-1, sy // the raster-first pixel has no labeled left neighbour
	addPoint(image.Pt(sx, sy))
	fx, fy, bx, by, found := nextBoundaryPixel(labels, w, h, label, sx, sy, bx, by)
	if !found {
		return pts // isolated pixel
	}

	// Stop once the start pixel would be left along the first edge again.
	cx, cy := fx, fy
	maxSteps := 4*st.count + 8
	for steps := 0; steps < maxSteps; steps++ {
		nx, ny, nbx, nby, _ := nextBoundaryPixel(labels, w, h, label, cx, cy, bx, by)
		if cx == sx && cy == sy && nx == fx && ny == fy {
			break
		}
		addPoint(image.Pt(cx, cy))
		cx, cy, bx, by = nx, ny, nbx, nby
	}

	// Close the polygon so a trailing collinear vertex is collapsed too, then
	// drop the start vertex if it lies on a straight run.
	if n := len(pts); n > 1 && pts[n-1] != pts[0] {
		addPoint(pts[0])
		pts = pts[:len(pts)-1]
	}
	if n := len(pts); n >= 3 {
		a, b, c := pts[n-1], pts[0], pts[1]
		if (b.X-a.X)*(c.Y-b.Y)-(b.Y-a.Y)*(c.X-b.X) == 0 {
			pts = pts[1:]
		}
	}
	return pts
}

// findStartingPixel returns the first component pixel in raster order
// within the component's bounds.
func findStartingPixel(labels []int32, w int, label int32, st compStats) (int, int) {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] == label {
				return x, y
			}
		}
	}
	return -1, -1
}

func isLabelPixel(labels []int32, w, h int, label int32, x, y int) bool {
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return labels[y*w+x] == label
}

// nextBoundaryPixel scans the Moore neighbourhood of (cx, cy) clockwise,
// starting just after the backtrack pixel (bx, by). It returns the next
// boundary pixel and the new backtrack (the last background neighbour seen).
func nextBoundaryPixel(labels []int32, w, h int, label int32, cx, cy, bx, by int) (int, int, int, int, bool) {
	start := 0
	for i := range 8 {
		if ndx[i] == bx-cx && ndy[i] == by-cy {
			start = (i + 1) % 8
			break
		}
	}
	px, py := bx, by
	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+ndx[i], cy+ndy[i]
		if isLabelPixel(labels, w, h, label, tx, ty) {
			return tx, ty, px, py, true
		}
		px, py = tx, ty
	}
	return 0, 0, bx, by, false
}
