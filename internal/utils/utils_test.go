package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("meter.PNG"))
	assert.True(t, IsSupportedImage("a/b/c.jpeg"))
	assert.True(t, IsSupportedImage("scan.tiff"))
	assert.False(t, IsSupportedImage("notes.txt"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestDecodeImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 3))
	img, format, err := DecodeImage(encodeTestPNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 5, img.Bounds().Dx())

	_, _, err = DecodeImage([]byte("definitely not an image"))
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)

	_, _, err = DecodeImage(nil)
	assert.Error(t, err)
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "digits.png")
	require.NoError(t, os.WriteFile(path, encodeTestPNG(t, image.NewRGBA(image.Rect(0, 0, 8, 6))), 0o600))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 6, meta.Height)
	assert.Positive(t, meta.SizeBytes)

	_, _, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, _, err = LoadImage(filepath.Join(dir, "file.txt"))
	assert.Error(t, err)
}

func TestEnsureColorDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	out := EnsureColor(src)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, out.NRGBAAt(1, 0))

	g := image.NewGray(image.Rect(0, 0, 1, 1))
	g.SetGray(0, 0, color.Gray{Y: 77})
	assert.Equal(t, color.NRGBA{R: 77, G: 77, B: 77, A: 255}, EnsureColor(g).NRGBAAt(0, 0))
}

func TestToGray(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 255})
	g := ToGray(src)
	assert.Equal(t, uint8(76), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(150), g.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(29), g.GrayAt(2, 0).Y)

	sub := image.NewGray(image.Rect(0, 0, 4, 4))
	sub.SetGray(2, 2, color.Gray{Y: 9})
	cropped := ToGray(sub.SubImage(image.Rect(2, 2, 4, 4)))
	assert.Equal(t, image.Rect(0, 0, 2, 2), cropped.Bounds())
	assert.Equal(t, uint8(9), cropped.GrayAt(0, 0).Y)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#00ff00")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, c)

	c, err = ParseHexColor("FF0000")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.R)

	_, err = ParseHexColor("#zzzzzz")
	assert.Error(t, err)
}

func TestDrawRectAndLabel(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	green := color.NRGBA{G: 255, A: 255}
	DrawRect(dst, image.Rect(5, 5, 20, 25), green, 1)
	assert.Equal(t, green, dst.NRGBAAt(5, 5))
	assert.Equal(t, green, dst.NRGBAAt(19, 24))
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(10, 10))

	DrawLabel(dst, 35, -5, "#1", green)
	painted := 0
	for i := 1; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] == 255 {
			painted++
		}
	}
	assert.Greater(t, painted, 2*15+2*18)
}

func TestEncodePNGBase64(t *testing.T) {
	s, err := EncodePNGBase64(image.NewGray(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}
