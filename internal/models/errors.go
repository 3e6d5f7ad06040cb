package models

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactNotFound means the artifact file does not exist.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrArtifactInvalid means the artifact could not be decoded or lacks a
	// classifier or scaler.
	ErrArtifactInvalid = errors.New("model artifact invalid")
	// ErrModelNotReady is returned when no model has been loaded.
	ErrModelNotReady = errors.New("model not ready")
)

// ArtifactError records which artifact failed to load and why.
type ArtifactError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load %s model from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

func notFound(path string, kind Kind, cause error) error {
	hint := kind.Info().EnvVar
	if hint == "" {
		hint = EnvSVMPath
	}
	return &ArtifactError{
		Path: path,
		Kind: kind,
		Err:  fmt.Errorf("%w (set %s to a valid artifact): %w", ErrArtifactNotFound, hint, cause),
	}
}

func invalidArtifact(path string, kind Kind, format string, args ...any) error {
	return &ArtifactError{
		Path: path,
		Kind: kind,
		Err:  fmt.Errorf("%w: %w", ErrArtifactInvalid, fmt.Errorf(format, args...)),
	}
}
