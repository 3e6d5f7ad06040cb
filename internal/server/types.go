package server

import "github.com/MeKo-Tech/digitread/internal/pipeline"

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelReady   bool   `json:"model_ready"`
	ModelKind    string `json:"model_kind,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	LastLoadedAt string `json:"last_loaded_at,omitempty"`
	Version      string `json:"version,omitempty"`
	Time         string `json:"time"`
}

// ModelInfo describes one configured model kind.
type ModelInfo struct {
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Exists      bool   `json:"exists"`
	Active      bool   `json:"active"`
}

// ModelsResponse is returned by /models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}

// ModelLoadResponse is returned by a successful /model/load.
type ModelLoadResponse struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	LoadedAt string `json:"loaded_at"`
	Message  string `json:"message"`
}

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PredictResponse aliases the pipeline result returned by /predict.
type PredictResponse = pipeline.RecognitionResult
