package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/utils"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:     "healthy",
		ModelReady: s.models.IsReady(),
		Version:    s.version,
		Time:       time.Now().UTC().Format(time.RFC3339),
	}
	if resp.ModelReady {
		if b, err := s.models.Current(); err == nil {
			resp.ModelKind = string(b.Kind)
			resp.ModelName = b.Name
		}
		resp.LastLoadedAt = s.models.LastLoadedAt()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses := s.models.Models()
	list := make([]ModelInfo, 0, len(statuses))
	for _, st := range statuses {
		list = append(list, ModelInfo{
			Kind:        string(st.Kind),
			Label:       st.Label,
			Path:        st.Path,
			Description: st.Description,
			Exists:      st.Exists,
			Active:      st.Active,
		})
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: list, Count: len(list)})
}

func (s *Server) modelLoadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind, err := models.ParseKind(r.FormValue("kind"))
	if err != nil {
		s.writeErrorResponse(w, "invalid_kind", err.Error(), http.StatusBadRequest)
		return
	}
	path := strings.TrimSpace(r.FormValue("path"))

	b, err := s.models.Load(kind, path)
	if err != nil {
		modelLoadsTotal.WithLabelValues(string(kind), "error").Inc()
		status := http.StatusInternalServerError
		code := "load_failed"
		switch {
		case errors.Is(err, models.ErrArtifactNotFound):
			status, code = http.StatusNotFound, "model_not_found"
		case errors.Is(err, models.ErrArtifactInvalid):
			status, code = http.StatusUnprocessableEntity, "model_invalid"
		}
		s.writeErrorResponse(w, code, err.Error(), status)
		return
	}
	modelLoadsTotal.WithLabelValues(string(kind), "ok").Inc()

	writeJSON(w, http.StatusOK, ModelLoadResponse{
		Kind:     string(b.Kind),
		Name:     b.Name,
		Path:     b.Path,
		LoadedAt: b.LoadedAt.UTC().Format(time.RFC3339),
		Message:  fmt.Sprintf("%s loaded", b.Name),
	})
}

// predictRequest is a parsed /predict form.
type predictRequest struct {
	data   []byte
	opts   pipeline.Options
	format string
}

func (s *Server) predictHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parsePredictRequest(w, r)
	if err != nil {
		predictRequestsTotal.WithLabelValues("http", "bad_request").Inc()
		return // response already written
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.recognizer.RecognizeWithOptions(ctx, req.data, req.opts)
	predictDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		status, code := errorStatus(err)
		predictRequestsTotal.WithLabelValues("http", code).Inc()
		s.writeErrorResponse(w, code, err.Error(), status)
		return
	}
	predictRequestsTotal.WithLabelValues("http", "ok").Inc()

	s.writePredictResponse(w, req, res)
}

func (s *Server) parsePredictRequest(w http.ResponseWriter, r *http.Request) (*predictRequest, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "too_large", "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "invalid_request", "No image file provided", http.StatusBadRequest)
		return nil, err
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "invalid_request", "Failed to read image data", http.StatusBadRequest)
		return nil, err
	}

	req := &predictRequest{data: data, format: strings.ToLower(r.FormValue("format"))}
	if v := strings.TrimSpace(r.FormValue("expected_digits")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeErrorResponse(w, "invalid_request", "expected_digits must be a non-negative integer", http.StatusBadRequest)
			return nil, fmt.Errorf("invalid expected_digits %q", v)
		}
		req.opts.ExpectedDigits = n
	}
	req.opts.Debug = parseBool(r.FormValue("debug")) || s.recognizer.Config().Debug
	return req, nil
}

func (s *Server) writePredictResponse(w http.ResponseWriter, req *predictRequest, res *pipeline.RecognitionResult) {
	switch req.format {
	case pipeline.FormatText:
		out, err := pipeline.ToPlainText(res, s.precision)
		if err != nil {
			http.Error(w, fmt.Sprintf("formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, out)
	case pipeline.FormatCSV:
		out, err := pipeline.ToCSV(res, s.precision)
		if err != nil {
			http.Error(w, fmt.Sprintf("formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, out)
	case pipeline.FormatOverlay:
		s.writeOverlay(w, req.data, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) writeOverlay(w http.ResponseWriter, data []byte, res *pipeline.RecognitionResult) {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		http.Error(w, "overlay failed", http.StatusInternalServerError)
		return
	}
	cfg := s.recognizer.Config()
	png, err := utils.EncodePNG(pipeline.RenderOverlay(img, res.Digits, cfg.OverlayBoxColor, cfg.OverlayLabelColor))
	if err != nil {
		http.Error(w, "overlay failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// errorStatus maps recognition errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidImage):
		return http.StatusBadRequest, "invalid_image"
	case errors.Is(err, pipeline.ErrNoDigits):
		return http.StatusUnprocessableEntity, "no_digits"
	case errors.Is(err, models.ErrModelNotReady),
		errors.Is(err, models.ErrArtifactNotFound),
		errors.Is(err, models.ErrArtifactInvalid):
		return http.StatusServiceUnavailable, "model_not_ready"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
