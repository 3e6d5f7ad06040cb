package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestCORSMiddleware(t *testing.T) {
	s := &Server{corsOrigin: "*"}
	h := s.corsMiddleware(okHandler)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := &Server{}
	w := httptest.NewRecorder()
	s.rateLimitMiddleware(okHandler)(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	s.rateLimiter = NewRateLimiter(1, 0, 0, 0)
	h := s.rateLimitMiddleware(okHandler)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
}

func TestHandleRateLimitError_Quota(t *testing.T) {
	s := &Server{}
	w := httptest.NewRecorder()
	s.handleRateLimitError(w, &QuotaExceededError{Type: "data", Limit: 10, Used: 10, Resets: time.Now()})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "data", w.Header().Get("X-Quota-Type"))
	assert.Equal(t, "10", w.Header().Get("X-Quota-Used"))

	w = httptest.NewRecorder()
	s.handleRateLimitError(w, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": " 10.0.0.3 "}, "1.1.1.1:80", "10.0.0.3"},
		{"remote addr", nil, "192.168.1.4:5555", "192.168.1.4"},
		{"remote without port", nil, "192.168.1.5", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
