package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/livechat/chat"
)

type fakeRunner struct {
	mu     sync.Mutex
	status chat.Status
}

func (f *fakeRunner) Status() chat.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeRunner) Ready() bool {
	s := f.Status()
	return s.Active && !s.Ended
}

func newTestMux(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if deps.Hub == nil {
		deps.Hub = NewHub(8)
	}
	return NewMux(ctx, deps)
}

func TestHealthzOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	newTestMux(t, Deps{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("expected ok body, got %q", got)
	}
}

func TestReadyz(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestMux(t, Deps{Runner: runner})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "not_ready", resp["status"])
	assert.Equal(t, "session", resp["failed_check"])

	runner.mu.Lock()
	runner.status = chat.Status{Active: true}
	runner.mu.Unlock()

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ready", resp["status"])
}

func TestStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runner := &fakeRunner{status: chat.Status{
		WatchURL: "https://www.youtube.com/watch?v=XYZ", LiveID: "XYZ", Active: true,
		Ticks: 7, Items: 42, LastTick: &now,
	}}
	hub := NewHub(1)
	_, _, cancel := hub.Subscribe()
	defer cancel()

	rr := httptest.NewRecorder()
	newTestMux(t, Deps{Runner: runner, Hub: hub}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"watch_url":"https://www.youtube.com/watch?v=XYZ","live_id":"XYZ","active":true,"ended":false,
		"ticks":7,"failures":0,"items":42,"last_tick":"2024-05-01T12:00:00Z","subscribers":1
	}`, rr.Body.String())

	rr = httptest.NewRecorder()
	newTestMux(t, Deps{Runner: runner}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCorrelationAndCORS(t *testing.T) {
	t.Setenv("CORS_PERMISSIVE", "")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, *.example.org")
	h := newTestMux(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "corr-123", rr.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/chat/stream", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"), "generated when absent")

	assert.True(t, isOriginAllowed("https://live.example.org", []string{"*.example.org"}))
	assert.False(t, isOriginAllowed("https://example.org.evil.com", []string{"*.example.org"}))
}

func TestChatStreamSSE(t *testing.T) {
	hub := NewHub(8)
	srv := httptest.NewServer(newTestMux(t, Deps{Hub: hub}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/chat/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	_, _ = r.ReadString('\n')

	name := "Alice"
	hub.Publish(chat.ChatItem{ID: "m1", Author: chat.Author{Name: &name, ChannelID: "UC1"}, Message: []chat.MessageItem{chat.TextMessage("hi")}})

	line, err = r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "), "got %q", line)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &got))
	assert.Equal(t, "m1", got["id"])
	assert.Equal(t, []any{map[string]any{"type": "text", "text": "hi"}}, got["message"])

	cancel()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestChatStreamWebSocket(t *testing.T) {
	hub := NewHub(8)
	srv := httptest.NewServer(newTestMux(t, Deps{Hub: hub, KeepAlive: 50 * time.Millisecond}))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)
	hub.Publish(chat.ChatItem{ID: "m1", Author: chat.Author{ChannelID: "UC1"}})
	hub.Publish(chat.ChatItem{ID: "m2", Author: chat.Author{ChannelID: "UC2"}, SuperChat: &chat.SuperChat{Amount: "$5.00", Color: "#E5881EFF"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first, second chat.ChatItem
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "m1", first.ID)
	var raw map[string]any
	require.NoError(t, conn.ReadJSON(&raw))
	second.ID, _ = raw["id"].(string)
	assert.Equal(t, "m2", second.ID)
	assert.Equal(t, map[string]any{"amount": "$5.00", "color": "#E5881EFF"}, raw["superchat"])

	hub.Close()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestChatStreamRateLimited(t *testing.T) {
	t.Setenv("SUBSCRIBE_RATE_LIMIT_REQUESTS", "1")
	h := newTestMux(t, Deps{})

	// A non-GET request is rejected by the handler but still counts against the limit.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat/stream", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:5555"
	assert.Equal(t, "2001:db8::1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Start(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
