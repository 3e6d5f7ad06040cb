package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/digitread/internal/classifier"
	"github.com/MeKo-Tech/digitread/internal/features"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Model types accepted in artifacts.
const (
	TypeSVC      = "svc"
	TypeLinear   = "linear"
	TypeKNN      = "knn"
	TypeONNX     = "onnx"
	TypePipeline = "pipeline"
)

// Artifact is the on-disk model document. JSON documents decode as well.
type Artifact struct {
	Name      string                   `yaml:"name,omitempty"`
	Model     *ModelSpec               `yaml:"model"`
	Scaler    *classifier.ScalerParams `yaml:"scaler,omitempty"`
	HOGParams *features.Overrides      `yaml:"hog_params,omitempty"`
}

// ModelSpec describes an estimator, or a pipeline of named steps.
type ModelSpec struct {
	Type    string                   `yaml:"type"`
	Classes []string                 `yaml:"classes,omitempty"`
	SVC     *classifier.SVCParams    `yaml:"svc,omitempty"`
	Linear  *classifier.LinearParams `yaml:"linear,omitempty"`
	KNN     *classifier.KNNParams    `yaml:"knn,omitempty"`
	ONNX    *classifier.ONNXParams   `yaml:"onnx,omitempty"`
	Steps   []Step                   `yaml:"steps,omitempty"`
}

// Step is one named stage of a pipeline model.
type Step struct {
	Name      string                   `yaml:"name"`
	Scaler    *classifier.ScalerParams `yaml:"scaler,omitempty"`
	Estimator *ModelSpec               `yaml:"estimator,omitempty"`
}

// Bundle is a fully built model ready for inference. Bundles are immutable.
type Bundle struct {
	Kind      Kind
	Name      string
	Path      string
	Estimator classifier.Estimator
	Scaler    classifier.Scaler
	HOG       features.Params
	LoadedAt  time.Time
}

// LoadBundle reads, decodes and builds the artifact at path.
func LoadBundle(path string, kind Kind) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(path, kind, err)
		}
		return nil, invalidArtifact(path, kind, "read: %w", err)
	}

	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, invalidArtifact(path, kind, "decode: %w", err)
	}
	return buildBundle(&a, path, kind)
}

func buildBundle(a *Artifact, path string, kind Kind) (*Bundle, error) {
	if a.Model == nil {
		return nil, invalidArtifact(path, kind, "missing 'model'")
	}

	spec, scalerParams := a.Model, a.Scaler
	if spec.Type == TypePipeline {
		est, sc := pipelineComponents(spec)
		if est == nil {
			return nil, invalidArtifact(path, kind, "pipeline has no estimator step")
		}
		if len(est.Classes) == 0 {
			est.Classes = spec.Classes
		}
		spec = est
		if scalerParams == nil {
			scalerParams = sc
		}
	}
	if scalerParams == nil {
		return nil, invalidArtifact(path, kind, "missing 'scaler'")
	}

	scaler, err := classifier.NewScaler(*scalerParams)
	if err != nil {
		return nil, invalidArtifact(path, kind, "scaler: %w", err)
	}
	est, err := newEstimator(spec, filepath.Dir(path))
	if err != nil {
		return nil, invalidArtifact(path, kind, "model: %w", err)
	}

	hog := features.DefaultParams().Merge(a.HOGParams)
	if err := hog.Validate(); err != nil {
		return nil, invalidArtifact(path, kind, "hog_params: %w", err)
	}
	if n, ok := est.(interface{ NumFeatures() int }); ok && n.NumFeatures() != hog.Length() {
		return nil, invalidArtifact(path, kind, "model expects %d features, hog_params produce %d",
			n.NumFeatures(), hog.Length())
	}

	name := a.Name
	if name == "" {
		name = kind.Label()
	}
	return &Bundle{
		Kind:      kind,
		Name:      name,
		Path:      path,
		Estimator: est,
		Scaler:    scaler,
		HOG:       hog,
		LoadedAt:  time.Now().UTC(),
	}, nil
}

// pipelineComponents picks the scaler (step "scaler", else the first step
// carrying one) and the estimator (step "knn", "svm" or "model", else the
// last step carrying one).
func pipelineComponents(spec *ModelSpec) (*ModelSpec, *classifier.ScalerParams) {
	var scaler *classifier.ScalerParams
	for _, s := range spec.Steps {
		if s.Name == "scaler" && s.Scaler != nil {
			scaler = s.Scaler
			break
		}
	}
	if scaler == nil {
		for _, s := range spec.Steps {
			if s.Scaler != nil {
				scaler = s.Scaler
				break
			}
		}
	}

	for _, name := range []string{"knn", "svm", "model"} {
		for _, s := range spec.Steps {
			if s.Name == name && s.Estimator != nil {
				return s.Estimator, scaler
			}
		}
	}
	for i := len(spec.Steps) - 1; i >= 0; i-- {
		if spec.Steps[i].Estimator != nil {
			return spec.Steps[i].Estimator, scaler
		}
	}
	return nil, scaler
}

func newEstimator(spec *ModelSpec, baseDir string) (classifier.Estimator, error) {
	classes := normalizeLabels(spec.Classes)
	switch spec.Type {
	case TypeSVC:
		if spec.SVC == nil {
			return nil, errors.New("type svc requires an 'svc' section")
		}
		return classifier.NewSVC(*spec.SVC, classes)
	case TypeLinear:
		if spec.Linear == nil {
			return nil, errors.New("type linear requires a 'linear' section")
		}
		return classifier.NewLinear(*spec.Linear, classes)
	case TypeKNN:
		if spec.KNN == nil {
			return nil, errors.New("type knn requires a 'knn' section")
		}
		p := *spec.KNN
		p.Labels = normalizeLabels(p.Labels)
		return classifier.NewKNN(p, classes)
	case TypeONNX:
		if spec.ONNX == nil {
			return nil, errors.New("type onnx requires an 'onnx' section")
		}
		p := *spec.ONNX
		if p.Path != "" && !filepath.IsAbs(p.Path) {
			p.Path = filepath.Join(baseDir, p.Path)
		}
		return classifier.NewONNX(p, classes)
	case TypePipeline:
		return nil, errors.New("nested pipelines are not supported")
	default:
		return nil, fmt.Errorf("unknown model type %q", spec.Type)
	}
}

func normalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = norm.NFC.String(l)
	}
	return out
}
