// Package classifier implements inference for the digit classifiers and
// feature scalers stored in model artifacts.
package classifier

import (
	"errors"
	"fmt"
)

// Capability tells callers how an estimator reports its decision.
type Capability int

const (
	// DecisionScores estimators expose one real-valued score per class.
	DecisionScores Capability = iota
	// DiscreteOnly estimators only return a predicted label.
	DiscreteOnly
)

func (c Capability) String() string {
	switch c {
	case DecisionScores:
		return "decision_scores"
	case DiscreteOnly:
		return "discrete_only"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

var (
	// ErrNoDecisionScores is returned by Decision on discrete-only estimators.
	ErrNoDecisionScores = errors.New("estimator does not expose decision scores")
	// ErrFeatureLength is returned when an input vector has the wrong length.
	ErrFeatureLength = errors.New("feature vector length mismatch")
	// ErrInvalidModel is returned by constructors for inconsistent parameters.
	ErrInvalidModel = errors.New("invalid model parameters")
)

// Estimator is a trained classifier.
type Estimator interface {
	// Kind returns the artifact model type ("svc", "linear", "knn", "onnx").
	Kind() string
	Capability() Capability
	// Classes returns the class-label table, which may be empty.
	Classes() []string
	// Decision returns raw per-class scores. Binary models may return a
	// single score.
	Decision(x []float64) ([]float64, error)
	// Predict returns the predicted label.
	Predict(x []float64) (string, error)
}

// Scaler maps raw features into the space the estimator was trained in.
type Scaler interface {
	Kind() string
	Transform(x []float64) ([]float64, error)
}

func checkLength(got, want int) error {
	if want > 0 && got != want {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, got, want)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidModel, fmt.Sprintf(format, args...))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// argmax returns the index of the first maximum.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func labelAt(classes []string, idx int) string {
	if idx >= 0 && idx < len(classes) {
		return classes[idx]
	}
	return fmt.Sprintf("%d", idx)
}
