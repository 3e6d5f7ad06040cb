// Package models resolves, decodes and holds the classifier artifacts used
// for digit recognition.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind selects one of the supported classifier families.
type Kind string

const (
	KindSVM Kind = "svm"
	KindKNN Kind = "knn"
)

// Artifact filenames inside the models directory.
const (
	SVMFilename = "svm_digit_classifier.yaml"
	KNNFilename = "knn_digit_classifier.yaml"
)

// Default models directory.
const DefaultModelsDir = "models"

// Environment variables consulted when no explicit path is configured.
const (
	EnvModelsDir = "DIGITREAD_MODELS_DIR"
	EnvSVMPath   = "MODEL_PATH"
	EnvKNNPath   = "MODEL_PATH_KNN"
)

// ModelInfo describes a supported model kind.
type ModelInfo struct {
	Kind        Kind   `json:"kind"`
	Label       string `json:"label"`
	Filename    string `json:"filename"`
	EnvVar      string `json:"env_var"`
	Description string `json:"description"`
}

var modelInfos = []ModelInfo{
	{
		Kind:        KindSVM,
		Label:       "Support Vector Machine",
		Filename:    SVMFilename,
		EnvVar:      EnvSVMPath,
		Description: "Default HOG + SVM digit classifier",
	},
	{
		Kind:        KindKNN,
		Label:       "K-Nearest Neighbors",
		Filename:    KNNFilename,
		EnvVar:      EnvKNNPath,
		Description: "Alternative HOG + KNN digit classifier",
	},
}

// ListAvailableModels returns the supported model kinds, default first.
func ListAvailableModels() []ModelInfo {
	out := make([]ModelInfo, len(modelInfos))
	copy(out, modelInfos)
	return out
}

// ParseKind accepts "svm" or "knn" in any case. An empty string selects SVM.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindSVM:
		return KindSVM, nil
	case KindKNN:
		return KindKNN, nil
	default:
		return "", fmt.Errorf("unknown model kind %q (want svm or knn)", s)
	}
}

// Info returns the metadata of k.
func (k Kind) Info() ModelInfo {
	for _, info := range modelInfos {
		if info.Kind == k {
			return info
		}
	}
	return ModelInfo{Kind: k, Label: string(k)}
}

// Label returns the display name of k.
func (k Kind) Label() string { return k.Info().Label }

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}

// GetModelsDir returns the models directory.
// Priority: 1. explicit modelsDir, 2. environment variable, 3. project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// ResolveModelPath returns the artifact path for kind.
// Priority: 1. explicit override, 2. the kind's environment variable,
// 3. <models dir>/<kind filename>.
func ResolveModelPath(modelsDir string, kind Kind, override string) string {
	if override != "" {
		return override
	}
	info := kind.Info()
	if info.EnvVar != "" {
		if p := os.Getenv(info.EnvVar); p != "" {
			return p
		}
	}
	return filepath.Join(GetModelsDir(modelsDir), info.Filename)
}

// ValidateModelExists checks if a model file exists at the given path.
func ValidateModelExists(modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	return nil
}
