package cmd

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/utils"
	"github.com/disintegration/imaging"
)

// newPipeline loads the configured model and builds a pipeline around it.
func (a *app) newPipeline() (*pipeline.Pipeline, *models.Store, error) {
	kind, err := models.ParseKind(a.cfg.Model.Kind)
	if err != nil {
		return nil, nil, err
	}
	store := models.NewStore(a.cfg.ToStoreConfig())
	bundle, err := store.Load(kind, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model: %w", err)
	}
	slog.Debug("Model loaded", "kind", bundle.Kind, "name", bundle.Name, "path", bundle.Path)

	pl, err := pipeline.New(a.cfg.ToPipelineConfig(), store)
	if err != nil {
		return nil, nil, err
	}
	return pl, store, nil
}

// writeOutput writes content to file, or to w when file is empty.
func writeOutput(w io.Writer, content, file string) error {
	if file == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// saveOverlay writes <name>_overlay.png into dir.
func saveOverlay(dir, source string, data []byte, res *pipeline.RecognitionResult, cfg pipeline.Config) (string, error) {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create overlay dir: %w", err)
	}
	out := filepath.Join(dir, baseName(source)+"_overlay.png")
	ov := pipeline.RenderOverlay(img, res.Digits, cfg.OverlayBoxColor, cfg.OverlayLabelColor)
	return out, imaging.Save(ov, out)
}

// saveDebugImages writes the stage frames and digit crops of the debug
// payload as PNG files into dir.
func saveDebugImages(dir, source string, payload *pipeline.DebugPayload) ([]string, error) {
	if payload == nil {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	name := baseName(source)

	var written []string
	write := func(file, encoded string) error {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode %s: %w", file, err)
		}
		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	for i, st := range payload.Stages {
		if err := write(fmt.Sprintf("%s_%d_%s.png", name, i+1, st.Key), st.Image); err != nil {
			return written, err
		}
	}
	for _, crop := range payload.DigitCrops {
		if err := write(fmt.Sprintf("%s_digit%d_%s.png", name, crop.Index+1, crop.Label), crop.Image); err != nil {
			return written, err
		}
	}
	return written, nil
}
