package onnx

import (
	"errors"
	"fmt"
)

// Tensor is a row-major float32 tensor prepared for ONNX input.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewFeatureTensor builds a [1, N] tensor from a feature vector.
func NewFeatureTensor(features []float64) (Tensor, error) {
	if len(features) == 0 {
		return Tensor{}, errors.New("empty feature vector")
	}
	data := make([]float32, len(features))
	for i, v := range features {
		data[i] = float32(v)
	}
	return Tensor{Data: data, Shape: []int64{1, int64(len(features))}}, nil
}

// Verify checks that the data length matches the shape.
func (t Tensor) Verify() error {
	if len(t.Shape) == 0 {
		return errors.New("empty shape")
	}
	n := int64(1)
	for i, v := range t.Shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
		n *= v
	}
	if int64(len(t.Data)) != n {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), n, t.Shape)
	}
	return nil
}

// TensorStats computes min, max and mean for debug output.
func TensorStats(data []float32) (float32, float32, float32) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	minVal, maxVal := data[0], data[0]
	var sum float64
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
		sum += float64(v)
	}
	return minVal, maxVal, float32(sum / float64(len(data)))
}
