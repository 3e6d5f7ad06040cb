// Package server exposes digit recognition over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recognizer is the part of the pipeline the handlers use.
type Recognizer interface {
	RecognizeWithOptions(ctx context.Context, data []byte, opts pipeline.Options) (*pipeline.RecognitionResult, error)
	Config() pipeline.Config
}

// ModelManager is the part of the model store the handlers use.
type ModelManager interface {
	Current() (*models.Bundle, error)
	Load(kind models.Kind, path string) (*models.Bundle, error)
	IsReady() bool
	LastLoadedAt() string
	Models() []models.ModelStatus
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	recognizer  Recognizer
	models      ModelManager
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
	precision   int
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host                string
	Port                int
	CORSOrigin          string
	MaxUploadMB         int64
	TimeoutSec          int
	ShutdownTimeoutSec  int
	ConfidencePrecision int
	Version             string

	RateLimit RateLimitConfig
}

// RateLimitConfig enables per-client limits. Zero values disable a limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// NewServer creates a server around an existing pipeline and model store.
func NewServer(cfg Config, rec Recognizer, mm ModelManager) (*Server, error) {
	if rec == nil || mm == nil {
		return nil, errors.New("server requires a recognizer and a model manager")
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 30
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	s := &Server{
		recognizer:  rec,
		models:      mm,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		version:     cfg.Version,
		precision:   cfg.ConfidencePrecision,
	}
	if rl := cfg.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/model/load", s.corsMiddleware(s.modelLoadHandler))
	mux.HandleFunc("/predict", s.corsMiddleware(s.rateLimitMiddleware(s.predictHandler)))
	mux.HandleFunc("/ws", s.rateLimitMiddleware(s.predictWebSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
