package recognizer

import (
	"errors"
	"math"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/classifier"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEstimator struct {
	capability classifier.Capability
	classes    []string
	scores     []float64
	label      string
	err        error
	seen       []float64
}

func (f *fakeEstimator) Kind() string                      { return "fake" }
func (f *fakeEstimator) Capability() classifier.Capability { return f.capability }
func (f *fakeEstimator) Classes() []string                 { return f.classes }

func (f *fakeEstimator) Decision(x []float64) ([]float64, error) {
	f.seen = x
	return f.scores, f.err
}

func (f *fakeEstimator) Predict(x []float64) (string, error) {
	f.seen = x
	return f.label, f.err
}

type doubler struct{}

func (doubler) Kind() string { return "double" }

func (doubler) Transform(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 2 * v
	}
	return out, nil
}

func TestClassify_DecisionScores(t *testing.T) {
	est := &fakeEstimator{
		capability: classifier.DecisionScores,
		classes:    []string{"0", "1", "2"},
		scores:     []float64{0.1, 2.0, -1.0},
	}
	pred, err := Classify([]float64{1, 2}, est, doubler{})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 4}, est.seen)
	assert.Equal(t, "1", pred.Label)
	assert.Equal(t, 1, pred.Index)
	assert.InDelta(t, Softmax(est.scores)[1], pred.Confidence, 1e-12)
}

func TestClassify_LabelFallsBackToIndex(t *testing.T) {
	est := &fakeEstimator{
		capability: classifier.DecisionScores,
		classes:    []string{"a", "b"},
		scores:     []float64{0, 0, 5},
	}
	pred, err := Classify(nil, est, nil)
	require.NoError(t, err)
	assert.Equal(t, "2", pred.Label)
}

func TestClassify_SingleScore(t *testing.T) {
	est := &fakeEstimator{capability: classifier.DecisionScores, classes: []string{"3", "8"}, scores: []float64{-4.2}}
	pred, err := Classify(nil, est, nil)
	require.NoError(t, err)
	assert.Equal(t, "0", pred.Label)
	assert.InDelta(t, 1.0, pred.Confidence, 1e-12)
}

func TestClassify_FirstMaximumWins(t *testing.T) {
	est := &fakeEstimator{capability: classifier.DecisionScores, scores: []float64{1, 3, 3}}
	pred, err := Classify(nil, est, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pred.Index)
}

func TestClassify_DiscreteOnly(t *testing.T) {
	est := &fakeEstimator{capability: classifier.DiscreteOnly, label: "7"}
	pred, err := Classify([]float64{1}, est, nil)
	require.NoError(t, err)
	assert.Equal(t, "7", pred.Label)
	assert.InDelta(t, DiscreteConfidence, pred.Confidence, 1e-12)
	assert.Equal(t, -1, pred.Index)
}

func TestClassify_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Classify(nil, &fakeEstimator{capability: classifier.DecisionScores, err: boom}, nil)
	require.ErrorIs(t, err, boom)

	_, err = Classify(nil, &fakeEstimator{capability: classifier.DecisionScores}, nil)
	require.ErrorIs(t, err, ErrNoScores)

	_, err = Classify(nil, &fakeEstimator{capability: classifier.DiscreteOnly, err: boom}, nil)
	require.ErrorIs(t, err, boom)

	_, err = Classify(nil, &fakeEstimator{capability: classifier.Capability(9)}, nil)
	require.Error(t, err)

	_, err = Classify(nil, nil, nil)
	require.Error(t, err)
}

func TestSoftmax_Degenerate(t *testing.T) {
	assert.Nil(t, Softmax(nil))
	assert.Equal(t, []float64{1}, Softmax([]float64{12}))

	uniform := Softmax([]float64{math.NaN(), 1, 2})
	for _, p := range uniform {
		assert.InDelta(t, 1.0/3, p, 1e-12)
	}

	huge := Softmax([]float64{1e308, 1e308})
	assert.InDelta(t, 0.5, huge[0], 1e-12)
}

func TestSoftmax_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	scores := gen.SliceOfN(6, gen.Float64Range(-50, 50))

	properties.Property("sums to one", prop.ForAll(
		func(s []float64) bool {
			var sum float64
			for _, p := range Softmax(s) {
				if p < 0 || p > 1 {
					return false
				}
				sum += p
			}
			return math.Abs(sum-1) < 1e-9
		},
		scores,
	))

	properties.Property("invariant under constant shift", prop.ForAll(
		func(s []float64, shift float64) bool {
			shifted := make([]float64, len(s))
			for i, v := range s {
				shifted[i] = v + shift
			}
			a, b := Softmax(s), Softmax(shifted)
			for i := range a {
				if math.Abs(a[i]-b[i]) > 1e-9 {
					return false
				}
			}
			return true
		},
		scores,
		gen.Float64Range(-100, 100),
	))

	properties.Property("argmax is preserved", prop.ForAll(
		func(s []float64) bool {
			return argmax(Softmax(s)) == argmax(s)
		},
		scores,
	))

	properties.TestingRun(t)
}
