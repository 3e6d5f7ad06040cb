package detector

import (
	"image"
	"log/slog"

	"github.com/MeKo-Tech/digitread/internal/canonical"
	"github.com/MeKo-Tech/digitread/internal/imgproc"
)

// splitWithProjection cuts the mask into expected vertical strips of equal
// foreground mass and returns one canonicalized candidate per strip. It
// returns nil when expected <= 0 or the mask has no foreground.
func splitWithProjection(mask, gray *image.Gray, expected, minArea int, opts Options) []Candidate {
	if expected <= 0 {
		return nil
	}
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	cumsum := make([]float64, w)
	running := 0.0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			running += float64(mask.Pix[y*w+x])
		}
		cumsum[x] = running
	}
	total := running
	if total <= 0 {
		return nil
	}

	cuts := make([]int, 0, expected+1)
	cuts = append(cuts, 0)
	for i := 1; i < expected; i++ {
		cuts = append(cuts, searchLeft(cumsum, total*float64(i)/float64(expected)))
	}
	cuts = append(cuts, w)
	for i := 1; i < len(cuts); i++ {
		cuts[i] = min(max(cuts[i], cuts[i-1]+1), w)
	}

	pad := opts.ProjectionPad
	out := make([]Candidate, 0, expected)
	for i := 0; i < expected; i++ {
		x0 := max(0, cuts[i]-pad)
		x1 := min(w, cuts[i+1]+pad)
		if x1 <= x0 {
			continue
		}
		box := foregroundBounds(mask, image.Rect(x0, 0, x1, h))
		if box.Empty() {
			box = image.Rect(x0, 0, x1, h)
		}
		if box.Dx()*box.Dy() < minArea {
			box = padRect(box, pad, w, h)
		}
		box = padRect(box, opts.BBoxPad, w, h)
		out = append(out, Candidate{
			Box:      box,
			Crop:     canonical.Canonicalize(imgproc.Crop(gray, box), opts.Canvas),
			Strategy: StrategyProjection,
		})
	}
	slog.Debug("projection split", "expected", expected, "cuts", cuts, "candidates", len(out))
	return out
}

// searchLeft returns the first index whose cumulative value is >= target.
func searchLeft(cumsum []float64, target float64) int {
	lo, hi := 0, len(cumsum)
	for lo < hi {
		mid := (lo + hi) / 2
		if cumsum[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// foregroundBounds returns the tight bounds of non-zero mask pixels inside
// within, or an empty rectangle.
func foregroundBounds(mask *image.Gray, within image.Rectangle) image.Rectangle {
	w := mask.Rect.Dx()
	minX, minY, maxX, maxY := within.Max.X, within.Max.Y, -1, -1
	for y := within.Min.Y; y < within.Max.Y; y++ {
		for x := within.Min.X; x < within.Max.X; x++ {
			if mask.Pix[y*w+x] == 0 {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// padRect grows r by pad on every side, clamped to [0, w) x [0, h).
func padRect(r image.Rectangle, pad, w, h int) image.Rectangle {
	if pad <= 0 {
		return r
	}
	return image.Rect(max(0, r.Min.X-pad), max(0, r.Min.Y-pad), min(w, r.Max.X+pad), min(h, r.Max.Y+pad))
}
