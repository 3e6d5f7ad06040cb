package detector

import (
	"image"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
)

// openingKernel is the side of the square element used to drop speckles
// after thresholding.
const openingKernel = 2

// Binarize turns an enhanced grayscale image (bright foreground) into a
// {0, 255} mask: 3x3 Gaussian smoothing, a global Otsu threshold and one
// 2x2 opening pass. A frame without two populated intensity levels yields an
// empty mask.
func Binarize(enhanced *image.Gray) *image.Gray {
	blurred := imgproc.GaussianBlur3(enhanced)
	t, ok := imgproc.OtsuThreshold(blurred)
	if !ok {
		return imgproc.NewGray(blurred.Rect.Dx(), blurred.Rect.Dy())
	}
	mask := imgproc.Threshold(blurred, t)
	return imgproc.ApplyMorphology(mask, imgproc.MorphConfig{
		Operation:    imgproc.MorphOpening,
		KernelWidth:  openingKernel,
		KernelHeight: openingKernel,
		Iterations:   1,
	})
}
