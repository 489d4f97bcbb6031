package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/sink"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP connections into session event channels. It is a
// typed boundary: frames in, relay calls out, no decision logic.
type Handler struct {
	log             *slog.Logger
	relay           contract.IRelay
	validate        *validator.Validate
	upgrader        websocket.Upgrader
	bufferSize      int
	deliveryTimeout time.Duration

	// Server lifetime, deliberately not the connection's: a disconnect
	// must not cancel that session's in-flight exchanges.
	baseCtx context.Context
}

func NewHandler(ctx context.Context, log *slog.Logger, relay contract.IRelay,
	bufferSize int, deliveryTimeout time.Duration) *Handler {
	return &Handler{
		log:      log,
		relay:    relay,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		bufferSize:      bufferSize,
		deliveryTimeout: deliveryTimeout,
		baseCtx:         ctx,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	sessionID := uuid.NewString()
	sessionSink := sink.NewSessionSink(h.bufferSize)

	if err := h.relay.Connect(sessionID, sessionSink); err != nil {
		_ = conn.Close()
		return
	}

	go h.writePump(conn, sessionID, sessionSink)
	h.readLoop(conn, sessionID, sessionSink)

	// Transport closed: implicit disconnect, no announcement.
	h.relay.Disconnect(sessionID)
	sessionSink.Close()
	_ = conn.Close()
}

// readLoop translates inbound frames into relay commands until the
// transport closes.
func (h *Handler) readLoop(conn *websocket.Conn, sessionID string, sessionSink *sink.SessionSink) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(sessionID, sessionSink, raw)
	}
}

func (h *Handler) dispatch(sessionID string, sessionSink *sink.SessionSink, raw []byte) {
	var frame event.Inbound
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.log.Warn("Malformed frame", "session_id", sessionID, "error", err)
		_ = sessionSink.Consume(event.NewError("Malformed event frame"))
		return
	}

	switch frame.Event {
	case event.Join:
		var p event.JoinPayload
		if !h.decode(sessionID, sessionSink, frame.Data, &p) {
			return
		}
		h.relay.Join(sessionID, p.DisplayName)

	case event.Leave:
		h.relay.Leave(sessionID)

	case event.ChatMessage:
		var p event.ChatPayload
		if !h.decode(sessionID, sessionSink, frame.Data, &p) {
			return
		}
		h.relay.Chat(sessionID, p.Message)

	case event.ExchangeRequest:
		var p event.ExchangePayload
		if !h.decode(sessionID, sessionSink, frame.Data, &p) {
			return
		}
		h.relay.Exchange(h.baseCtx, sessionID, p)

	default:
		h.log.Warn("Unknown event", "session_id", sessionID, "event", frame.Event)
		_ = sessionSink.Consume(event.NewError("Unknown event: " + frame.Event))
	}
}

// decode unmarshals and validates one payload; on failure the session gets
// an error event and the command is dropped.
func (h *Handler) decode(sessionID string, sessionSink *sink.SessionSink,
	data json.RawMessage, out any) bool {
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			h.log.Warn("Malformed payload", "session_id", sessionID, "error", err)
			_ = sessionSink.Consume(event.NewError("Malformed payload"))
			return false
		}
	}
	if err := h.validate.Struct(out); err != nil {
		_ = sessionSink.Consume(event.NewError("Invalid payload: " + err.Error()))
		return false
	}
	return true
}

// writePump drains the sink to the socket. A write deadline bounds each
// delivery so a dead peer is detected instead of wedging the pump.
func (h *Handler) writePump(conn *websocket.Conn, sessionID string, sessionSink *sink.SessionSink) {
	for {
		select {
		case <-sessionSink.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case evt := <-sessionSink.Events:
			_ = conn.SetWriteDeadline(time.Now().Add(h.deliveryTimeout))
			if err := conn.WriteJSON(evt); err != nil {
				h.log.Warn("Session write failed", "session_id", sessionID, "error", err)
				// Closing wakes the read loop, which tears the session down.
				_ = conn.Close()
				return
			}
		}
	}
}
