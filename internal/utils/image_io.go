package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// DecodeImage decodes encoded image bytes in any registered format.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: errors.New("empty input")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: err}
	}
	if img.Bounds().Empty() {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: errors.New("image has no pixels")}
	}
	return img, format, nil
}

// ReadImageFile reads the raw bytes of an image file after checking its extension.
func ReadImageFile(path string) ([]byte, ImageMetadata, error) {
	if path == "" {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-provided image path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}
	meta := ImageMetadata{Path: path, SizeBytes: int64(len(data))}
	if cfg, format, cfgErr := image.DecodeConfig(bytes.NewReader(data)); cfgErr == nil {
		meta.Format = format
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}
	return data, meta, nil
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	data, meta, err := ReadImageFile(path)
	if err != nil {
		return nil, meta, err
	}
	img, format, err := DecodeImage(data)
	if err != nil {
		return nil, meta, err
	}
	meta.Format = format
	meta.Width = img.Bounds().Dx()
	meta.Height = img.Bounds().Dy()
	return img, meta, nil
}
