package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Engine is the conversation surface used over the socket.
type Engine interface {
	Open(ctx context.Context, sessionID, locale string) (chat.Snapshot, *chat.Response, error)
	Process(ctx context.Context, sessionID, text, locale string) (*chat.Response, error)
	Act(ctx context.Context, sessionID, actionID, payload, label string) (*chat.Response, error)
}

// WebSocketHandler carries a conversation over a WebSocket.
type WebSocketHandler struct {
	engine   Engine
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the handler.
func NewWebSocketHandler(engine Engine, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		engine: engine,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Locale   string `json:"locale"`
	ActionID string `json:"actionId"`
	Payload  string `json:"payload"`
	Label    string `json:"label"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	snapshot, welcome, err := h.engine.Open(r.Context(), sessionID, r.URL.Query().Get("locale"))
	if err != nil {
		h.logger.Error("websocket session open failed", zap.String("session_id", sessionID), zap.Error(err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("websocket connected", zap.String("session_id", sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, "session", sessionID, snapshot)
	if welcome != nil {
		h.send(conn, "response", sessionID, welcome)
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, conn, sessionID, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	var (
		resp *chat.Response
		err  error
	)
	switch msg.Type {
	case "message":
		resp, err = h.engine.Process(ctx, sessionID, msg.Text, msg.Locale)
	case "action":
		if msg.ActionID == "" {
			h.sendError(conn, "actionId is required")
			return
		}
		resp, err = h.engine.Act(ctx, sessionID, msg.ActionID, msg.Payload, msg.Label)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
		return
	}
	if err != nil {
		h.logger.Warn("websocket turn failed", zap.String("session_id", sessionID), zap.Error(err))
		h.sendError(conn, "message could not be processed")
		return
	}
	h.send(conn, "response", sessionID, resp)
}

func (h *WebSocketHandler) send(conn *websocket.Conn, kind, sessionID string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", "", map[string]string{"message": message})
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
