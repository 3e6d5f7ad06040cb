package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebSocketRequest is a prediction request. Image carries the encoded image
// bytes, base64 in JSON.
type WebSocketRequest struct {
	Type           string `json:"type"` // "predict"
	RequestID      string `json:"request_id,omitempty"`
	Image          []byte `json:"image"`
	ExpectedDigits int    `json:"expected_digits,omitempty"`
	Debug          bool   `json:"debug,omitempty"`
}

// WebSocketResponse is sent for every state change of a request.
type WebSocketResponse struct {
	Type      string                      `json:"type"`
	Status    string                      `json:"status"` // processing, completed, error
	RequestID string                      `json:"request_id,omitempty"`
	Result    *pipeline.RecognitionResult `json:"result,omitempty"`
	Error     string                      `json:"error,omitempty"`
	ErrorType string                      `json:"error_type,omitempty"`
}

// wsWriter serializes writes to one connection.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(resp WebSocketResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (w *wsWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

func (s *Server) predictWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()
	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.serveWebSocket(r.Context(), conn)
}

func (s *Server) serveWebSocket(ctx context.Context, conn *websocket.Conn) {
	out := &wsWriter{conn: conn}
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024 * 2) // base64 overhead
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := out.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, out, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, out *wsWriter, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		out.send(errorMessage("", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err)))
		return
	}
	if req.RequestID == "" {
		req.RequestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if req.Type != "predict" {
		out.send(errorMessage(req.RequestID, "invalid_request", "Unsupported request type: "+req.Type))
		return
	}
	if len(req.Image) == 0 {
		out.send(errorMessage(req.RequestID, "invalid_request", "No image data provided"))
		return
	}

	out.send(WebSocketResponse{Type: "predict_response", Status: "processing", RequestID: req.RequestID})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	res, err := s.recognizer.RecognizeWithOptions(ctx, req.Image, pipeline.Options{
		ExpectedDigits: req.ExpectedDigits,
		Debug:          req.Debug,
	})
	predictDuration.WithLabelValues("ws").Observe(time.Since(start).Seconds())
	if err != nil {
		_, code := errorStatus(err)
		predictRequestsTotal.WithLabelValues("ws", code).Inc()
		out.send(errorMessage(req.RequestID, code, err.Error()))
		return
	}
	predictRequestsTotal.WithLabelValues("ws", "ok").Inc()
	out.send(WebSocketResponse{Type: "predict_response", Status: "completed", RequestID: req.RequestID, Result: res})
}

func errorMessage(requestID, errorType, message string) WebSocketResponse {
	return WebSocketResponse{
		Type:      "error",
		Status:    "error",
		RequestID: requestID,
		Error:     message,
		ErrorType: errorType,
	}
}
