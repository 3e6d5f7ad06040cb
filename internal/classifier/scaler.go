package classifier

// Scaler kinds.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// ScalerParams is the serialized form of a feature scaler.
type ScalerParams struct {
	Type  string    `yaml:"type" json:"type"`
	Mean  []float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	Scale []float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Min   []float64 `yaml:"min,omitempty" json:"min,omitempty"`
}

// StandardScaler computes (x - mean) / scale per feature.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// MinMaxScaler computes x*scale + min per feature.
type MinMaxScaler struct {
	scale []float64
	min   []float64
}

// NewScaler builds a scaler from its parameters.
func NewScaler(p ScalerParams) (Scaler, error) {
	switch p.Type {
	case ScalerStandard, "":
		if len(p.Scale) == 0 && len(p.Mean) == 0 {
			return nil, invalid("standard scaler needs mean or scale")
		}
		if len(p.Mean) > 0 && len(p.Scale) > 0 && len(p.Mean) != len(p.Scale) {
			return nil, invalid("scaler mean has %d values, scale has %d", len(p.Mean), len(p.Scale))
		}
		return &StandardScaler{mean: p.Mean, scale: p.Scale}, nil
	case ScalerMinMax:
		if len(p.Scale) == 0 || len(p.Scale) != len(p.Min) {
			return nil, invalid("minmax scaler needs scale and min of equal length")
		}
		return &MinMaxScaler{scale: p.Scale, min: p.Min}, nil
	default:
		return nil, invalid("unknown scaler type %q", p.Type)
	}
}

func (s *StandardScaler) Kind() string { return ScalerStandard }

// Transform returns the standardized copy of x. A zero scale leaves the
// centered value unchanged.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	n := max(len(s.mean), len(s.scale))
	if err := checkLength(len(x), n); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if len(s.mean) > 0 {
			v -= s.mean[i]
		}
		if len(s.scale) > 0 && s.scale[i] != 0 {
			v /= s.scale[i]
		}
		out[i] = v
	}
	return out, nil
}

func (s *MinMaxScaler) Kind() string { return ScalerMinMax }

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if err := checkLength(len(x), len(s.scale)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.scale[i] + s.min[i]
	}
	return out, nil
}
