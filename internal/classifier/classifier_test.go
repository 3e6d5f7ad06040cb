package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapability_String(t *testing.T) {
	assert.Equal(t, "decision_scores", DecisionScores.String())
	assert.Equal(t, "discrete_only", DiscreteOnly.String())
	assert.Equal(t, "capability(7)", Capability(7).String())
}

func TestStandardScaler(t *testing.T) {
	s, err := NewScaler(ScalerParams{Type: ScalerStandard, Mean: []float64{1, 2}, Scale: []float64{2, 0}})
	require.NoError(t, err)
	assert.Equal(t, ScalerStandard, s.Kind())

	out, err := s.Transform([]float64{5, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, out)

	_, err = s.Transform([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureLength)
}

func TestMinMaxScaler(t *testing.T) {
	s, err := NewScaler(ScalerParams{Type: ScalerMinMax, Scale: []float64{0.5, 2}, Min: []float64{1, -1}})
	require.NoError(t, err)

	out, err := s.Transform([]float64{4, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5}, out)
}

func TestNewScaler_Invalid(t *testing.T) {
	for name, p := range map[string]ScalerParams{
		"unknown type":    {Type: "robust", Scale: []float64{1}},
		"empty standard":  {Type: ScalerStandard},
		"length mismatch": {Type: ScalerStandard, Mean: []float64{1}, Scale: []float64{1, 2}},
		"minmax no min":   {Type: ScalerMinMax, Scale: []float64{1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewScaler(p)
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestLinear(t *testing.T) {
	m, err := NewLinear(LinearParams{
		Coef:      [][]float64{{1, 0}, {0, 1}, {-1, -1}},
		Intercept: []float64{0, 0.5, 0},
	}, []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Equal(t, DecisionScores, m.Capability())

	scores, err := m.Decision([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5, -2}, scores)

	label, err := m.Predict([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "y", label)

	_, err = m.Decision([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureLength)
}

func TestLinear_Binary(t *testing.T) {
	m, err := NewLinear(LinearParams{Coef: [][]float64{{1}}}, []string{"neg", "pos"})
	require.NoError(t, err)

	label, err := m.Predict([]float64{2})
	require.NoError(t, err)
	assert.Equal(t, "pos", label)

	label, err = m.Predict([]float64{-2})
	require.NoError(t, err)
	assert.Equal(t, "neg", label)
}

func TestNewLinear_Invalid(t *testing.T) {
	_, err := NewLinear(LinearParams{}, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewLinear(LinearParams{Coef: [][]float64{{1, 2}, {1}}}, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewLinear(LinearParams{Coef: [][]float64{{1}}, Intercept: []float64{1, 2}}, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestSVC_OneVsOneAggregation(t *testing.T) {
	m, err := NewSVC(SVCParams{
		Kernel:         KernelLinear,
		SupportVectors: [][]float64{{0}, {5}, {10}},
		NSupport:       []int{1, 1, 1},
		DualCoef:       [][]float64{{0, 0, 0}, {0, 0, 0}},
		Intercept:      []float64{1, 1, -1},
	}, []string{"0", "1", "2"})
	require.NoError(t, err)

	scores, err := m.Decision([]float64{3})
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.InDelta(t, 2+2.0/9, scores[0], 1e-12)
	assert.InDelta(t, -2.0/9, scores[1], 1e-12)
	assert.InDelta(t, 1, scores[2], 1e-12)

	label, err := m.Predict([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, "0", label)
}

func TestSVC_BinaryLinearKernel(t *testing.T) {
	m, err := NewSVC(SVCParams{
		Kernel:         KernelLinear,
		SupportVectors: [][]float64{{1, 0}, {0, 1}},
		NSupport:       []int{1, 1},
		DualCoef:       [][]float64{{1, -1}},
		Intercept:      []float64{0},
	}, []string{"a", "b"})
	require.NoError(t, err)

	scores, err := m.Decision([]float64{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{-2}, scores)

	label, err := m.Predict([]float64{2, 0})
	require.NoError(t, err)
	assert.Equal(t, "a", label)

	label, err = m.Predict([]float64{0, 2})
	require.NoError(t, err)
	assert.Equal(t, "b", label)
}

func TestSVC_Kernels(t *testing.T) {
	base := SVCParams{
		Gamma:          0.5,
		Coef0:          1,
		Degree:         2,
		SupportVectors: [][]float64{{1, 1}, {0, 0}},
		NSupport:       []int{1, 1},
		DualCoef:       [][]float64{{1, 0}},
		Intercept:      []float64{0},
	}
	x := []float64{1, 1}
	tests := map[string]float64{
		KernelLinear:  2,
		KernelRBF:     1,
		KernelPoly:    4,
		KernelSigmoid: 0.9640275800758169,
	}
	for kernel, want := range tests {
		t.Run(kernel, func(t *testing.T) {
			p := base
			p.Kernel = kernel
			m, err := NewSVC(p, nil)
			require.NoError(t, err)
			scores, err := m.Decision(x)
			require.NoError(t, err)
			assert.InDelta(t, -want, scores[0], 1e-12)
		})
	}
}

func TestNewSVC_Invalid(t *testing.T) {
	valid := SVCParams{
		SupportVectors: [][]float64{{1}, {2}},
		NSupport:       []int{1, 1},
		DualCoef:       [][]float64{{1, -1}},
		Intercept:      []float64{0},
	}
	tests := map[string]func(*SVCParams){
		"kernel":       func(p *SVCParams) { p.Kernel = "cubic" },
		"one class":    func(p *SVCParams) { p.NSupport = []int{2} },
		"support sum":  func(p *SVCParams) { p.NSupport = []int{1, 2} },
		"dual rows":    func(p *SVCParams) { p.DualCoef = nil },
		"dual columns": func(p *SVCParams) { p.DualCoef = [][]float64{{1}} },
		"intercepts":   func(p *SVCParams) { p.Intercept = []float64{0, 1} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := valid
			mutate(&p)
			_, err := NewSVC(p, nil)
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}

	_, err := NewSVC(valid, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrInvalidModel)

	m, err := NewSVC(valid, nil)
	require.NoError(t, err)
	label, err := m.Predict([]float64{5})
	require.NoError(t, err)
	assert.Contains(t, []string{"0", "1"}, label)
}

func TestKNN(t *testing.T) {
	m, err := NewKNN(KNNParams{
		K:       3,
		Samples: [][]float64{{0}, {1}, {10}, {11}, {12}},
		Labels:  []string{"a", "a", "b", "b", "b"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, DiscreteOnly, m.Capability())
	assert.Equal(t, []string{"a", "b"}, m.Classes())

	label, err := m.Predict([]float64{0.4})
	require.NoError(t, err)
	assert.Equal(t, "a", label)

	label, err = m.Predict([]float64{9})
	require.NoError(t, err)
	assert.Equal(t, "b", label)

	_, err = m.Decision([]float64{1})
	assert.ErrorIs(t, err, ErrNoDecisionScores)
}

func TestKNN_TieGoesToFirstClass(t *testing.T) {
	m, err := NewKNN(KNNParams{
		K:       2,
		Samples: [][]float64{{2}, {0}},
		Labels:  []string{"b", "a"},
	}, nil)
	require.NoError(t, err)

	label, err := m.Predict([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, "a", label)

	// The closer "b" neighbor does not break the tie; class-table order does.
	label, err = m.Predict([]float64{1.5})
	require.NoError(t, err)
	assert.Equal(t, "a", label)

	ordered, err := NewKNN(KNNParams{
		K:       2,
		Samples: [][]float64{{2}, {0}},
		Labels:  []string{"b", "a"},
	}, []string{"b", "a"})
	require.NoError(t, err)
	label, err = ordered.Predict([]float64{0.5})
	require.NoError(t, err)
	assert.Equal(t, "b", label)
}

func TestNewKNN_Invalid(t *testing.T) {
	_, err := NewKNN(KNNParams{}, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewKNN(KNNParams{Samples: [][]float64{{1}}, Labels: []string{"a", "b"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)

	m, err := NewKNN(KNNParams{K: 10, Samples: [][]float64{{1}}, Labels: []string{"a"}}, nil)
	require.NoError(t, err)
	label, err := m.Predict([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, "a", label)
}

func TestNewONNX_EmptyPath(t *testing.T) {
	_, err := NewONNX(ONNXParams{}, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)
}
