package classifier

import (
	"math"
	"strconv"
)

// Kernel names.
const (
	KernelLinear  = "linear"
	KernelRBF     = "rbf"
	KernelPoly    = "poly"
	KernelSigmoid = "sigmoid"
)

// SVCParams is the serialized form of a kernel support-vector classifier.
//
// Support vectors are grouped by class in class order, NSupport[i] of them
// for class i. DualCoef has one row per class minus one; Intercept has one
// value per class pair (i, j), i < j, in lexicographic order. A positive
// pairwise value favors the first class of the pair.
type SVCParams struct {
	Kernel         string      `yaml:"kernel" json:"kernel"`
	Gamma          float64     `yaml:"gamma" json:"gamma"`
	Coef0          float64     `yaml:"coef0" json:"coef0"`
	Degree         int         `yaml:"degree" json:"degree"`
	SupportVectors [][]float64 `yaml:"support_vectors" json:"support_vectors"`
	NSupport       []int       `yaml:"n_support" json:"n_support"`
	DualCoef       [][]float64 `yaml:"dual_coef" json:"dual_coef"`
	Intercept      []float64   `yaml:"intercept" json:"intercept"`
}

// SVC evaluates a one-vs-one support-vector classifier.
type SVC struct {
	p       SVCParams
	start   []int
	classes []string
}

// NewSVC validates p and builds the classifier.
func NewSVC(p SVCParams, classes []string) (*SVC, error) {
	switch p.Kernel {
	case "":
		p.Kernel = KernelRBF
	case KernelLinear, KernelRBF, KernelPoly, KernelSigmoid:
	default:
		return nil, invalid("unknown kernel %q", p.Kernel)
	}
	if p.Kernel == KernelPoly && p.Degree == 0 {
		p.Degree = 3
	}

	nClass := len(p.NSupport)
	if nClass < 2 {
		return nil, invalid("svc needs at least two classes, got %d", nClass)
	}
	if len(p.SupportVectors) == 0 {
		return nil, invalid("svc has no support vectors")
	}
	d := len(p.SupportVectors[0])
	for i, sv := range p.SupportVectors {
		if len(sv) != d || d == 0 {
			return nil, invalid("support vector %d has %d values, want %d", i, len(sv), d)
		}
	}

	start := make([]int, nClass+1)
	for i, n := range p.NSupport {
		if n < 0 {
			return nil, invalid("negative n_support for class %d", i)
		}
		start[i+1] = start[i] + n
	}
	if start[nClass] != len(p.SupportVectors) {
		return nil, invalid("n_support sums to %d, have %d support vectors", start[nClass], len(p.SupportVectors))
	}
	if len(p.DualCoef) != nClass-1 {
		return nil, invalid("dual_coef has %d rows, want %d", len(p.DualCoef), nClass-1)
	}
	for i, row := range p.DualCoef {
		if len(row) != len(p.SupportVectors) {
			return nil, invalid("dual_coef row %d has %d values, want %d", i, len(row), len(p.SupportVectors))
		}
	}
	if pairs := nClass * (nClass - 1) / 2; len(p.Intercept) != pairs {
		return nil, invalid("intercept has %d values, want %d", len(p.Intercept), pairs)
	}
	if len(classes) > 0 && len(classes) != nClass {
		return nil, invalid("%d class labels for %d classes", len(classes), nClass)
	}
	return &SVC{p: p, start: start, classes: classes}, nil
}

func (s *SVC) Kind() string           { return "svc" }
func (s *SVC) Capability() Capability { return DecisionScores }
func (s *SVC) Classes() []string      { return s.classes }
func (s *SVC) NumFeatures() int       { return len(s.p.SupportVectors[0]) }
func (s *SVC) numClasses() int        { return len(s.p.NSupport) }

func (s *SVC) kernel(x, sv []float64) float64 {
	switch s.p.Kernel {
	case KernelLinear:
		return dot(x, sv)
	case KernelPoly:
		return math.Pow(s.p.Gamma*dot(x, sv)+s.p.Coef0, float64(s.p.Degree))
	case KernelSigmoid:
		return math.Tanh(s.p.Gamma*dot(x, sv) + s.p.Coef0)
	default:
		var d float64
		for i := range x {
			diff := x[i] - sv[i]
			d += diff * diff
		}
		return math.Exp(-s.p.Gamma * d)
	}
}

// pairwise returns the one-vs-one decision values in pair order.
func (s *SVC) pairwise(x []float64) []float64 {
	k := make([]float64, len(s.p.SupportVectors))
	for i, sv := range s.p.SupportVectors {
		k[i] = s.kernel(x, sv)
	}

	n := s.numClasses()
	dec := make([]float64, 0, n*(n-1)/2)
	p := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum := s.p.Intercept[p]
			for v := s.start[i]; v < s.start[i+1]; v++ {
				sum += s.p.DualCoef[j-1][v] * k[v]
			}
			for v := s.start[j]; v < s.start[j+1]; v++ {
				sum += s.p.DualCoef[i][v] * k[v]
			}
			dec = append(dec, sum)
			p++
		}
	}
	return dec
}

// Decision returns one score per class: the one-vs-one vote count plus the
// summed pairwise confidences squashed into (-1/3, 1/3). A binary model
// returns its single pairwise value negated, positive meaning the second
// class.
func (s *SVC) Decision(x []float64) ([]float64, error) {
	if err := checkLength(len(x), s.NumFeatures()); err != nil {
		return nil, err
	}
	dec := s.pairwise(x)
	n := s.numClasses()
	if n == 2 {
		return []float64{-dec[0]}, nil
	}
	return ovrScores(dec, n), nil
}

func ovrScores(dec []float64, n int) []float64 {
	votes := make([]float64, n)
	conf := make([]float64, n)
	p := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			conf[i] += dec[p]
			conf[j] -= dec[p]
			if dec[p] >= 0 {
				votes[i]++
			} else {
				votes[j]++
			}
			p++
		}
	}
	for i := range votes {
		votes[i] += conf[i] / (3 * (math.Abs(conf[i]) + 1))
	}
	return votes
}

func (s *SVC) Predict(x []float64) (string, error) {
	scores, err := s.Decision(x)
	if err != nil {
		return "", err
	}
	if len(scores) == 1 {
		idx := 0
		if scores[0] > 0 {
			idx = 1
		}
		return s.label(idx), nil
	}
	return s.label(argmax(scores)), nil
}

func (s *SVC) label(idx int) string {
	if len(s.classes) == s.numClasses() {
		return s.classes[idx]
	}
	return strconv.Itoa(idx)
}
