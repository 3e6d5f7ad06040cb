package classifier

// LinearParams holds a linear decision function coef·x + intercept.
type LinearParams struct {
	Coef      [][]float64 `yaml:"coef" json:"coef"`
	Intercept []float64   `yaml:"intercept" json:"intercept"`
}

// Linear is a one-vs-rest linear classifier. A single coefficient row is a
// binary model whose positive side is the second class.
type Linear struct {
	coef      [][]float64
	intercept []float64
	classes   []string
}

// NewLinear validates p and builds a linear classifier.
func NewLinear(p LinearParams, classes []string) (*Linear, error) {
	if len(p.Coef) == 0 {
		return nil, invalid("linear model has no coefficients")
	}
	d := len(p.Coef[0])
	for i, row := range p.Coef {
		if len(row) != d || d == 0 {
			return nil, invalid("coefficient row %d has %d values, want %d", i, len(row), d)
		}
	}
	intercept := p.Intercept
	if len(intercept) == 0 {
		intercept = make([]float64, len(p.Coef))
	}
	if len(intercept) != len(p.Coef) {
		return nil, invalid("%d intercepts for %d coefficient rows", len(intercept), len(p.Coef))
	}
	return &Linear{coef: p.Coef, intercept: intercept, classes: classes}, nil
}

func (l *Linear) Kind() string           { return "linear" }
func (l *Linear) Capability() Capability { return DecisionScores }
func (l *Linear) Classes() []string      { return l.classes }
func (l *Linear) NumFeatures() int       { return len(l.coef[0]) }

func (l *Linear) Decision(x []float64) ([]float64, error) {
	if err := checkLength(len(x), l.NumFeatures()); err != nil {
		return nil, err
	}
	scores := make([]float64, len(l.coef))
	for i, row := range l.coef {
		scores[i] = dot(row, x) + l.intercept[i]
	}
	return scores, nil
}

func (l *Linear) Predict(x []float64) (string, error) {
	scores, err := l.Decision(x)
	if err != nil {
		return "", err
	}
	if len(scores) == 1 {
		idx := 0
		if scores[0] > 0 {
			idx = 1
		}
		return labelAt(l.classes, idx), nil
	}
	return labelAt(l.classes, argmax(scores)), nil
}
