package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/livechat/chat"
)

const defaultKeepAlive = 15 * time.Second

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	deps      Deps
	keepAlive time.Duration
	upgrader  websocket.Upgrader
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps, cors *corsConfig) *Handlers {
	if deps.Hub == nil {
		deps.Hub = NewHub(1)
	}
	h := &Handlers{deps: deps, keepAlive: deps.KeepAlive}
	if h.keepAlive <= 0 {
		h.keepAlive = defaultKeepAlive
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return cors.allowOrigin(r.Header.Get("Origin"))
		},
	}
	return h
}

// HandleHealthz responds to liveness probes. It does not depend on upstream state.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready once a live chat session is active and, when
// configured, the database answers.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"session", func() error {
			if h.deps.Runner == nil || !h.deps.Runner.Ready() {
				return errors.New("no active live chat session")
			}
			return nil
		}},
		{"database", func() error {
			if h.deps.DB == nil {
				return nil
			}
			return h.deps.DB.PingContext(r.Context())
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleStatus returns the runner snapshot plus the live subscriber count.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var s chat.Status
	if h.deps.Runner != nil {
		s = h.deps.Runner.Status()
	}
	writeJSON(w, http.StatusOK, struct {
		chat.Status
		Subscribers int `json:"subscribers"`
	}{Status: s, Subscribers: h.deps.Hub.Len()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
