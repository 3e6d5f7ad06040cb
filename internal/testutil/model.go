package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MeKo-Tech/digitread/internal/classifier"
	"github.com/MeKo-Tech/digitread/internal/detector"
	"github.com/MeKo-Tech/digitread/internal/features"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/preprocess"
	"gopkg.in/yaml.v3"
)

// Digits is the class table of template models.
const Digits = "0123456789"

// Template is the descriptor of one rendered digit.
type Template struct {
	Label    string
	Features []float64
}

var (
	templatesOnce sync.Once
	templates     []Template
	templatesErr  error
)

// Templates returns HOG descriptors of every digit in Digits taken through
// preprocessing and segmentation. Each digit is rendered alone, doubled and
// inside the full Digits sequence, since stroke thickness after binarization
// depends on the surrounding image.
func Templates() ([]Template, error) {
	templatesOnce.Do(func() {
		texts := make([]string, 0, 2*len(Digits)+1)
		for _, r := range Digits {
			texts = append(texts, string(r), string(r)+string(r))
		}
		texts = append(texts, Digits)

		for _, text := range texts {
			descs, err := describe(text)
			if err != nil {
				templatesErr = fmt.Errorf("template %q: %w", text, err)
				return
			}
			for i, desc := range descs {
				templates = append(templates, Template{Label: string(text[i]), Features: desc})
			}
		}
	})
	return templates, templatesErr
}

// describe renders text and returns one descriptor per digit, left to right.
func describe(text string) ([][]float64, error) {
	out, err := preprocess.Run(RenderDigits(text, DefaultRenderOptions()), preprocess.DefaultConfig())
	if err != nil {
		return nil, err
	}
	seg := detector.Segment(detector.Binarize(out.Enhanced), out.Enhanced, len(text), detector.DefaultOptions())
	if len(seg.Candidates) != len(text) {
		return nil, fmt.Errorf("segmented %d candidates, want %d", len(seg.Candidates), len(text))
	}
	descs := make([][]float64, 0, len(text))
	for _, c := range seg.Candidates {
		desc, err := features.Extract(c.Crop, features.DefaultParams())
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// TemplateArtifact builds a nearest-template model over Templates. KindSVM
// produces a linear model scoring t·x - |t|²/2 with one row per template, so
// its class table repeats digits; KindKNN produces a 1-nearest-neighbor model
// over the same samples.
func TemplateArtifact(kind models.Kind) (*models.Artifact, error) {
	tpl, err := Templates()
	if err != nil {
		return nil, err
	}
	n := len(tpl[0].Features)
	classes := make([]string, 0, len(Digits))
	for _, r := range Digits {
		classes = append(classes, string(r))
	}
	samples := make([][]float64, len(tpl))
	labels := make([]string, len(tpl))
	for i, t := range tpl {
		samples[i], labels[i] = t.Features, t.Label
	}

	scale := make([]float64, n)
	for i := range scale {
		scale[i] = 1
	}
	a := &models.Artifact{
		Name:   "Template " + kind.Label(),
		Scaler: &classifier.ScalerParams{Type: classifier.ScalerStandard, Mean: make([]float64, n), Scale: scale},
	}

	switch kind {
	case models.KindKNN:
		a.Model = &models.ModelSpec{
			Type:    models.TypeKNN,
			Classes: classes,
			KNN:     &classifier.KNNParams{K: 1, Samples: samples, Labels: labels},
		}
	default:
		intercept := make([]float64, len(samples))
		for i, t := range samples {
			var sq float64
			for _, v := range t {
				sq += v * v
			}
			intercept[i] = -sq / 2
		}
		a.Model = &models.ModelSpec{
			Type:    models.TypeLinear,
			Classes: labels,
			Linear:  &classifier.LinearParams{Coef: samples, Intercept: intercept},
		}
	}
	return a, nil
}

// WriteTemplateArtifact writes TemplateArtifact(kind) into dir under the
// kind's default filename and returns the path.
func WriteTemplateArtifact(dir string, kind models.Kind) (string, error) {
	a, err := TemplateArtifact(kind)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(a)
	if err != nil {
		return "", err
	}
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, kind.Info().Filename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
