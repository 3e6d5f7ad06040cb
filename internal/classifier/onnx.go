package classifier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/digitread/internal/onnx"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// ONNXParams points at an exported decision-function graph taking a
// [1, N] float32 input and producing one score per class.
type ONNXParams struct {
	Path   string `yaml:"path" json:"path"`
	Input  string `yaml:"input,omitempty" json:"input,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// ONNX scores features with an ONNX Runtime session.
type ONNX struct {
	mu      sync.Mutex
	session *onnxrt.DynamicAdvancedSession
	input   onnxrt.InputOutputInfo
	output  onnxrt.InputOutputInfo
	classes []string
}

// NewONNX initializes the runtime and opens a session for p.Path. Input and
// output names default to the graph's first input and output.
func NewONNX(p ONNXParams, classes []string) (*ONNX, error) {
	if p.Path == "" {
		return nil, invalid("onnx model path is empty")
	}
	if err := onnx.EnsureInitialized(); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, invalid("onnx model has no inputs or outputs")
	}
	in, err := pickInfo(inputs, p.Input)
	if err != nil {
		return nil, err
	}
	out, err := pickInfo(outputs, p.Output)
	if err != nil {
		return nil, err
	}

	session, err := onnxrt.NewDynamicAdvancedSession(p.Path, []string{in.Name}, []string{out.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &ONNX{session: session, input: in, output: out, classes: classes}, nil
}

func pickInfo(infos []onnxrt.InputOutputInfo, name string) (onnxrt.InputOutputInfo, error) {
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return onnxrt.InputOutputInfo{}, invalid("onnx model has no tensor named %q", name)
}

func (m *ONNX) Kind() string           { return "onnx" }
func (m *ONNX) Capability() Capability { return DecisionScores }
func (m *ONNX) Classes() []string      { return m.classes }

// Decision runs the graph once and returns the flattened output.
func (m *ONNX) Decision(x []float64) ([]float64, error) {
	t, err := onnx.NewFeatureTensor(x)
	if err != nil {
		return nil, err
	}
	input, err := onnxrt.NewTensor(onnxrt.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, errors.New("onnx session is closed")
	}
	outputs := []onnxrt.Value{nil}
	if err := m.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference failed: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	out, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected onnx output type %T", outputs[0])
	}
	data := out.GetData()
	scores := make([]float64, len(data))
	for i, v := range data {
		scores[i] = float64(v)
	}
	return scores, nil
}

func (m *ONNX) Predict(x []float64) (string, error) {
	scores, err := m.Decision(x)
	if err != nil {
		return "", err
	}
	if len(scores) == 0 {
		return "", errors.New("onnx model returned no scores")
	}
	return labelAt(m.classes, argmax(scores)), nil
}

// Close releases the session.
func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
