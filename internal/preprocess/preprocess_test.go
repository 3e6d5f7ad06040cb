package preprocess

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/imgproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// darkStrokeOnPaper renders a dark bar on a light background with a
// horizontal illumination gradient.
func darkStrokeOnPaper() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 80, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 80; x++ {
			v := uint8(170 + x/2)
			if x >= 30 && x < 36 && y >= 10 && y < 50 {
				v = 40
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestRun_StrokesBecomeBright(t *testing.T) {
	out, err := Run(darkStrokeOnPaper(), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 80, 60), out.Enhanced.Bounds())

	stroke := out.Enhanced.GrayAt(33, 30).Y
	background := out.Enhanced.GrayAt(60, 30).Y
	assert.Greater(t, stroke, background)
	assert.Greater(t, int(stroke), 128)
	assert.Less(t, imgproc.Mean(out.Enhanced), 127.5)
	assert.Positive(t, out.ContrastStdDev)
}

func TestRun_GrayInputAccepted(t *testing.T) {
	g := imgproc.NewGray(30, 30)
	for i := range g.Pix {
		g.Pix[i] = 200
	}
	out, err := Run(g, DefaultConfig())
	require.NoError(t, err)
	assert.LessOrEqual(t, imgproc.Mean(out.Enhanced), 127.0)
}

func TestRun_EmptyImage(t *testing.T) {
	_, err := Run(image.NewGray(image.Rect(0, 0, 0, 0)), DefaultConfig())
	assert.True(t, errors.Is(err, ErrEmptyImage))

	_, err = Run(nil, DefaultConfig())
	assert.True(t, errors.Is(err, ErrEmptyImage))
}
