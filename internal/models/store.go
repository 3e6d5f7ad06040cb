package models

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// StoreConfig configures where a Store finds its artifacts.
type StoreConfig struct {
	ModelsDir   string
	SVMPath     string
	KNNPath     string
	DefaultKind Kind
}

type target struct {
	kind Kind
	path string
}

// Store owns the active model bundle. Readers get the current bundle with a
// single atomic load; loads are serialized and publish a bundle only after
// it is fully built, so a failed load leaves the previous bundle in place.
type Store struct {
	cfg     StoreConfig
	current atomic.Pointer[Bundle]
	mu      sync.Mutex
	pending *target
	load    func(path string, kind Kind) (*Bundle, error)
}

// NewStore creates an empty store. Nothing is loaded until Load, Reload or
// the first Current call after Select.
func NewStore(cfg StoreConfig) *Store {
	if cfg.DefaultKind == "" {
		cfg.DefaultKind = KindSVM
	}
	return &Store{cfg: cfg, load: LoadBundle}
}

// PathFor returns the artifact path configured for kind.
func (s *Store) PathFor(kind Kind) string {
	override := ""
	switch kind {
	case KindSVM:
		override = s.cfg.SVMPath
	case KindKNN:
		override = s.cfg.KNNPath
	}
	return ResolveModelPath(s.cfg.ModelsDir, kind, override)
}

// Load builds the artifact for kind (at path, or the configured path when
// empty) and makes it current.
func (s *Store) Load(kind Kind, path string) (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(kind, path)
}

func (s *Store) loadLocked(kind Kind, path string) (*Bundle, error) {
	if path == "" {
		path = s.PathFor(kind)
	}
	b, err := s.load(path, kind)
	if err != nil {
		slog.Warn("Model load failed", "kind", kind, "path", path, "error", err,
			"previous_ready", s.current.Load() != nil)
		return nil, err
	}
	s.current.Store(b)
	s.pending = nil
	slog.Info("Model loaded", "kind", kind, "name", b.Name, "path", path,
		"estimator", b.Estimator.Kind(), "capability", b.Estimator.Capability().String())
	return b, nil
}

// Select records kind/path as the model to load lazily on the next Current
// call, without touching the active bundle.
func (s *Store) Select(kind Kind, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &target{kind: kind, path: path}
}

// Reload rebuilds the current bundle from its path. A pending selection
// takes precedence; with nothing loaded the default kind is loaded.
func (s *Store) Reload() (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return s.loadLocked(s.pending.kind, s.pending.path)
	}
	if b := s.current.Load(); b != nil {
		return s.loadLocked(b.Kind, b.Path)
	}
	return s.loadLocked(s.cfg.DefaultKind, "")
}

// Current returns the active bundle, loading a pending selection first. A
// failed pending load is attempted once; the previous bundle stays active.
func (s *Store) Current() (*Bundle, error) {
	if b, err := s.loadPending(); b != nil || err != nil {
		if err != nil && s.current.Load() != nil {
			return s.current.Load(), nil
		}
		return b, err
	}
	if b := s.current.Load(); b != nil {
		return b, nil
	}
	return nil, ErrModelNotReady
}

func (s *Store) loadPending() (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, nil
	}
	p := *s.pending
	s.pending = nil
	return s.loadLocked(p.kind, p.path)
}

// IsReady reports whether a bundle is loaded.
func (s *Store) IsReady() bool { return s.current.Load() != nil }

// LastLoadedAt returns the load time of the active bundle as RFC3339 UTC,
// or "" when nothing is loaded.
func (s *Store) LastLoadedAt() string {
	b := s.current.Load()
	if b == nil {
		return ""
	}
	return b.LoadedAt.UTC().Format(time.RFC3339)
}

// ModelStatus describes a configured model kind.
type ModelStatus struct {
	ModelInfo
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Active bool   `json:"active"`
}

// Models lists every supported kind with its resolved path.
func (s *Store) Models() []ModelStatus {
	active := s.current.Load()
	out := make([]ModelStatus, 0, len(modelInfos))
	for _, info := range ListAvailableModels() {
		path := s.PathFor(info.Kind)
		out = append(out, ModelStatus{
			ModelInfo: info,
			Path:      path,
			Exists:    ValidateModelExists(path) == nil,
			Active:    active != nil && active.Kind == info.Kind,
		})
	}
	return out
}
