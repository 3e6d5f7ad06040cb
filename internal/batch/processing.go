package batch

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/utils"
	"github.com/disintegration/imaging"
)

// overlayPath returns the overlay file name for an input image.
func overlayPath(overlayDir, source string) string {
	base := filepath.Base(source)
	return filepath.Join(overlayDir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
}

// saveOverlay renders the recognized boxes over the source image and writes
// the result as PNG into overlayDir.
func saveOverlay(data []byte, r pipeline.BatchResult, overlayDir string, boxColor, labelColor color.Color) error {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(overlayDir, 0o750); err != nil {
		return fmt.Errorf("create overlay dir: %w", err)
	}
	ov := pipeline.RenderOverlay(img, r.Result.Digits, boxColor, labelColor)
	return imaging.Save(ov, overlayPath(overlayDir, r.Name))
}
