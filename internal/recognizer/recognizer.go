// Package recognizer turns classifier output for one feature vector into a
// digit label and a confidence.
package recognizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/MeKo-Tech/digitread/internal/classifier"
)

// DiscreteConfidence is reported for estimators that only return a label.
const DiscreteConfidence = 0.75

// ErrNoScores is returned when an estimator produces an empty score vector.
var ErrNoScores = errors.New("classifier returned no decision scores")

// Prediction is the classification of a single digit crop.
type Prediction struct {
	Label      string
	Confidence float64 // probability-like, in [0, 1]
	Index      int     // winning score index, -1 for discrete estimators
}

// Classify scales features, queries est and converts the answer into a
// Prediction. sc may be nil when the features are already scaled.
func Classify(features []float64, est classifier.Estimator, sc classifier.Scaler) (Prediction, error) {
	if est == nil {
		return Prediction{}, errors.New("nil estimator")
	}
	x := features
	if sc != nil {
		var err error
		if x, err = sc.Transform(features); err != nil {
			return Prediction{}, fmt.Errorf("scale features: %w", err)
		}
	}

	switch est.Capability() {
	case classifier.DecisionScores:
		scores, err := est.Decision(x)
		if err != nil {
			return Prediction{}, fmt.Errorf("decision function: %w", err)
		}
		if len(scores) == 0 {
			return Prediction{}, ErrNoScores
		}
		probs := Softmax(scores)
		idx := argmax(probs)
		return Prediction{
			Label:      resolveLabel(est.Classes(), idx, len(scores)),
			Confidence: probs[idx],
			Index:      idx,
		}, nil
	case classifier.DiscreteOnly:
		label, err := est.Predict(x)
		if err != nil {
			return Prediction{}, fmt.Errorf("predict: %w", err)
		}
		return Prediction{Label: label, Confidence: DiscreteConfidence, Index: -1}, nil
	default:
		return Prediction{}, fmt.Errorf("unsupported classifier capability %v", est.Capability())
	}
}

// Softmax returns exp(s_i - max) normalized to sum 1. When the normalizer is
// not a positive finite number the uniform distribution is returned.
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	peak := math.Inf(-1)
	for _, s := range scores {
		peak = math.Max(peak, s)
	}
	out := make([]float64, len(scores))
	var denom float64
	for i, s := range scores {
		out[i] = math.Exp(s - peak)
		denom += out[i]
	}
	if denom <= 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		u := 1 / float64(len(scores))
		for i := range out {
			out[i] = u
		}
		return out
	}
	for i := range out {
		out[i] /= denom
	}
	return out
}

// resolveLabel uses the class table only when it lines up with the scores.
func resolveLabel(classes []string, idx, nScores int) string {
	if len(classes) == nScores {
		return classes[idx]
	}
	return strconv.Itoa(idx)
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
