package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/livechat/telemetry"
)

const wsWriteWait = 10 * time.Second

// HandleChatStream streams live chat items as Server-Sent Events, one
// `data: <ChatItem JSON>` event per item, with comment keep-alives.
func (h *Handlers) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// Lift the server write timeout for this long-lived response.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ctx := r.Context()
	log := telemetry.LoggerWithCorr(ctx)
	id, items, cancel := h.deps.Hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(": connected\n\n")); err != nil {
		return
	}
	flusher.Flush()
	log.Debug("sse subscriber connected", slog.String("subscriber", id), slog.String("component", "http"))

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			log.Debug("sse subscriber disconnected", slog.String("subscriber", id), slog.String("component", "http"))
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				slog.Warn("failed to write SSE data prefix", slog.Any("err", err))
				return
			}
			// Encode terminates the JSON with a newline; one more ends the event.
			if err := enc.Encode(item); err != nil {
				slog.Warn("failed to encode SSE chat item", slog.Any("err", err))
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				slog.Warn("failed to write SSE newline", slog.Any("err", err))
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleChatWS streams live chat items over a WebSocket, one JSON text frame per item.
// Client messages are read and discarded; a close or read error ends the stream.
func (h *Handlers) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.Debug("websocket upgrade failed", slog.Any("err", err), slog.String("component", "http"))
		return
	}
	defer conn.Close()

	log := telemetry.LoggerWithCorr(r.Context())
	id, items, cancel := h.deps.Hub.Subscribe()
	defer cancel()
	log.Debug("ws subscriber connected", slog.String("subscriber", id), slog.String("component", "http"))

	pongWait := 2*h.keepAlive + wsWriteWait
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetReadLimit(4096)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			log.Debug("ws subscriber disconnected", slog.String("subscriber", id), slog.String("component", "http"))
			return
		case item, ok := <-items:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "live chat ended")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(item); err != nil {
				log.Debug("ws write failed", slog.Any("err", err), slog.String("subscriber", id), slog.String("component", "http"))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
