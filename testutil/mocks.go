package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockYouTubeServer creates a test server that mocks the watch page and innertube live chat endpoints
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []RecordedRequest
}

// RecordedRequest is a request seen by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// NewMockYouTubeServer creates a new mock YouTube server
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		handler, ok := m.Handlers[r.URL.Path]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Requests returns a copy of all requests received so far.
func (m *MockYouTubeServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// MockWatchPage serves html at path (e.g. "/watch").
func (m *MockYouTubeServer) MockWatchPage(path, html string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html) //nolint:errcheck // test mock response
	}
}

// MockLiveChatResponses serves the given documents in order from the get_live_chat
// endpoint; the last one is repeated once the list is exhausted.
func (m *MockYouTubeServer) MockLiveChatResponses(docs ...any) {
	var (
		mu sync.Mutex
		n  int
	)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers["/youtubei/v1/live_chat/get_live_chat"] = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		i := n
		if i >= len(docs) {
			i = len(docs) - 1
		}
		n++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(docs[i]) //nolint:errcheck // test mock response
	}
}

// MockStatus makes path answer with the given status code and body.
func (m *MockYouTubeServer) MockStatus(path string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body) //nolint:errcheck // test mock response
	}
}

// WatchPageHTML renders a minimal watch page carrying the bootstrap fields.
func WatchPageHTML(liveID, apiKey, clientVersion, continuation string) string {
	return fmt.Sprintf(`<html><head><link rel="canonical" href="https://www.youtube.com/watch?v=%s"></head>
<body><script>ytcfg.set({"INNERTUBE_API_KEY": "%s", "INNERTUBE_CONTEXT": {"client": {"clientName": "WEB", "clientVersion": "%s"}}});</script>
<script>var ytInitialData = {"contents": {"liveChatRenderer": {"continuations": [{"invalidationContinuationData": {"continuation": "%s"}}], "isReplay": false}}};</script>
</body></html>`, liveID, apiKey, clientVersion, continuation)
}

// LiveChatDoc builds a get_live_chat response with the given actions and a
// single timed continuation (omitted when continuation is empty).
func LiveChatDoc(continuation string, actions ...map[string]any) map[string]any {
	continuations := []map[string]any{}
	if continuation != "" {
		continuations = append(continuations, map[string]any{
			"timedContinuationData": map[string]any{"continuation": continuation, "timeoutMs": 5000},
		})
	}
	lcc := map[string]any{"continuations": continuations}
	if len(actions) > 0 {
		lcc["actions"] = actions
	}
	return map[string]any{
		"responseContext":      map[string]any{},
		"continuationContents": map[string]any{"liveChatContinuation": lcc},
	}
}

// TextMessageAction builds an addChatItemAction carrying a liveChatTextMessageRenderer.
func TextMessageAction(id, author, channelID, text string) map[string]any {
	return map[string]any{
		"addChatItemAction": map[string]any{
			"item": map[string]any{
				"liveChatTextMessageRenderer": map[string]any{
					"id":                      id,
					"authorName":              map[string]any{"simpleText": author},
					"authorExternalChannelId": channelID,
					"timestampUsec":           "1700000000000000",
					"authorPhoto": map[string]any{
						"thumbnails": []map[string]any{{"url": "https://yt3.example/" + channelID + ".jpg", "width": 32, "height": 32}},
					},
					"message": map[string]any{"runs": []map[string]any{{"text": text}}},
				},
			},
		},
	}
}
