package detector

import (
	"image"
	"log/slog"
	"sort"

	"github.com/MeKo-Tech/digitread/internal/canonical"
	"github.com/MeKo-Tech/digitread/internal/imgproc"
)

const (
	// DefaultMinArea is the smallest bounding-box area kept as a digit region.
	DefaultMinArea = 80
	// DefaultBBoxPad is the padding added around every candidate box.
	DefaultBBoxPad = 2
	// DefaultProjectionPad is the strip overlap used by the projection split.
	DefaultProjectionPad = 2
	// DefaultOwnershipMargin is the distance margin of the ownership test.
	DefaultOwnershipMargin = 3
)

// Strategy names which segmentation path produced a candidate.
type Strategy string

const (
	StrategyContour    Strategy = "contour"
	StrategyProjection Strategy = "projection"
)

// Options configures segmentation.
type Options struct {
	MinArea         int
	BBoxPad         int
	ProjectionPad   int
	OwnershipMargin float64
	Canvas          canonical.Config
}

// DefaultOptions returns the standard segmentation settings.
func DefaultOptions() Options {
	return Options{
		MinArea:         DefaultMinArea,
		BBoxPad:         DefaultBBoxPad,
		ProjectionPad:   DefaultProjectionPad,
		OwnershipMargin: DefaultOwnershipMargin,
		Canvas:          canonical.DefaultConfig(),
	}
}

// Candidate is one segmented digit.
type Candidate struct {
	Box      image.Rectangle // padded bounds in image coordinates
	Crop     *image.Gray     // canonical canvas
	Mask     *image.Gray     // box-local mask applied to the crop; nil for projection strips
	Strategy Strategy
}

// Result is the outcome of Segment.
type Result struct {
	Candidates   []Candidate
	RegionCount  int  // regions kept by the contour strategy
	UsedFallback bool // projection strips replaced the contour candidates
}

// Segment extracts digit candidates from a binary mask and the enhanced
// grayscale image it was built from, ordered left to right.
//
// The contour strategy keeps outer regions whose box area reaches MinArea,
// resolves overlapping boxes with centroid ownership masks and canonicalizes
// each masked crop. When expectedDigits > 0 and the region count differs,
// an equal-mass projection split is tried and, if it yields anything,
// replaces the contour output.
func Segment(mask, gray *image.Gray, expectedDigits int, opts Options) Result {
	mask, gray = imgproc.Normalize(mask), imgproc.Normalize(gray)
	w, h := mask.Rect.Dx(), mask.Rect.Dy()

	var kept []region
	for _, r := range extractRegions(mask) {
		if r.box.Dx()*r.box.Dy() < opts.MinArea {
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].box.Min.X < kept[j].box.Min.X })

	res := Result{RegionCount: len(kept)}
	res.Candidates = make([]Candidate, 0, len(kept))
	for i, r := range kept {
		rect := padRect(r.box, opts.BBoxPad, w, h)
		regionMask := regionMaskIn(r, rect)
		if !anyNonZero(regionMask) {
			continue
		}
		applied := regionMask
		if len(kept) > 1 && opts.OwnershipMargin > 0 {
			others := make([]point, 0, len(kept)-1)
			for j, o := range kept {
				if j != i {
					others = append(others, point{o.cx, o.cy})
				}
			}
			owned := andMasks(regionMask, ownershipMask(rect, point{r.cx, r.cy}, others, opts.OwnershipMargin))
			if anyNonZero(owned) {
				applied = owned
			}
		}

		patch := imgproc.Crop(gray, rect)
		masked := imgproc.MaskGray(patch, applied)
		if _, hi := imgproc.MinMax(masked); hi == 0 {
			masked = patch
		}
		res.Candidates = append(res.Candidates, Candidate{
			Box:      rect,
			Crop:     canonical.Canonicalize(masked, opts.Canvas),
			Mask:     applied,
			Strategy: StrategyContour,
		})
	}

	if expectedDigits > 0 && len(res.Candidates) != expectedDigits {
		slog.Debug("region count differs from expected digits, trying projection split",
			"regions", len(res.Candidates), "expected", expectedDigits)
		if projected := splitWithProjection(mask, gray, expectedDigits, opts.MinArea/2, opts); len(projected) > 0 {
			res.Candidates = projected
			res.UsedFallback = true
		}
	}

	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return res.Candidates[i].Box.Min.X < res.Candidates[j].Box.Min.X
	})
	return res
}
