package classifier

import (
	"slices"
	"sort"
)

// KNNParams is the serialized form of a k-nearest-neighbors classifier.
type KNNParams struct {
	K       int         `yaml:"k" json:"k"`
	Samples [][]float64 `yaml:"samples" json:"samples"`
	Labels  []string    `yaml:"labels" json:"labels"`
}

// KNN votes among the K nearest training samples by Euclidean distance.
// Ties in distance keep sample order; ties in votes go to the class listed
// first in the class table.
type KNN struct {
	k       int
	samples [][]float64
	labels  []string
	classes []string
}

// NewKNN validates p and builds the classifier. When classes is empty the
// sorted distinct sample labels are used.
func NewKNN(p KNNParams, classes []string) (*KNN, error) {
	if len(p.Samples) == 0 {
		return nil, invalid("knn has no samples")
	}
	if len(p.Labels) != len(p.Samples) {
		return nil, invalid("knn has %d labels for %d samples", len(p.Labels), len(p.Samples))
	}
	d := len(p.Samples[0])
	for i, s := range p.Samples {
		if len(s) != d || d == 0 {
			return nil, invalid("sample %d has %d values, want %d", i, len(s), d)
		}
	}
	k := p.K
	if k <= 0 {
		k = 5
	}
	k = min(k, len(p.Samples))
	if len(classes) == 0 {
		classes = slices.Clone(p.Labels)
		slices.Sort(classes)
		classes = slices.Compact(classes)
	}
	return &KNN{k: k, samples: p.Samples, labels: p.Labels, classes: classes}, nil
}

func (m *KNN) Kind() string           { return "knn" }
func (m *KNN) Capability() Capability { return DiscreteOnly }
func (m *KNN) Classes() []string      { return m.classes }
func (m *KNN) NumFeatures() int       { return len(m.samples[0]) }

func (m *KNN) Decision([]float64) ([]float64, error) { return nil, ErrNoDecisionScores }

func (m *KNN) Predict(x []float64) (string, error) {
	if err := checkLength(len(x), m.NumFeatures()); err != nil {
		return "", err
	}
	type neighbor struct {
		idx  int
		dist float64
	}
	all := make([]neighbor, len(m.samples))
	for i, s := range m.samples {
		var d float64
		for j := range x {
			diff := x[j] - s[j]
			d += diff * diff
		}
		all[i] = neighbor{idx: i, dist: d}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	votes := make(map[string]int, m.k)
	for _, n := range all[:m.k] {
		votes[m.labels[n.idx]]++
	}

	best, bestVotes := "", -1
	for _, c := range m.classes {
		if v := votes[c]; v > bestVotes {
			best, bestVotes = c, v
		}
	}
	// Labels missing from the class table still compete, after it.
	for _, n := range all[:m.k] {
		if l := m.labels[n.idx]; votes[l] > bestVotes {
			best, bestVotes = l, votes[l]
		}
	}
	return best, nil
}
