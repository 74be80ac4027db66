package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/livechat/testutil"
	"github.com/onnwee/livechat/youtubeapi"
)

type liveChatCall struct {
	apiKey string
	body   youtubeapi.GetLiveChatBody
}

// fakeTransport serves a fixed page and a queue of responses; the last
// response repeats once the queue runs out.
type fakeTransport struct {
	mu        sync.Mutex
	page      string
	pageErr   error
	responses [][]byte
	errs      []error
	calls     []liveChatCall
	pageHits  int
}

func (f *fakeTransport) FetchWatchPage(ctx context.Context, watchURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageHits++
	return f.page, f.pageErr
}

func (f *fakeTransport) GetLiveChat(ctx context.Context, apiKey string, body youtubeapi.GetLiveChatBody) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.calls)
	f.calls = append(f.calls, liveChatCall{apiKey: apiKey, body: body})
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no response queued")
	}
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func (f *fakeTransport) Calls() []liveChatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]liveChatCall(nil), f.calls...)
}

type recorder struct {
	mu      sync.Mutex
	started []string
	items   []ChatItem
	errs    []error
	ended   int
}

func (r *recorder) config(watchURL string, tr Transport) Config {
	return Config{
		WatchURL:  watchURL,
		Transport: tr,
		OnStart: func(liveID string) {
			r.mu.Lock()
			r.started = append(r.started, liveID)
			r.mu.Unlock()
		},
		OnChat: func(item ChatItem) {
			r.mu.Lock()
			r.items = append(r.items, item)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnEnd: func() {
			r.mu.Lock()
			r.ended++
			r.mu.Unlock()
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newStartedClient(t *testing.T, tr *fakeTransport) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	c, err := NewClient(rec.config("https://www.youtube.com/watch?v=XYZ", tr))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	return c, rec
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Transport: &fakeTransport{}})
	assert.Error(t, err)
	_, err = NewClient(Config{WatchURL: "https://www.youtube.com/watch?v=XYZ"})
	assert.Error(t, err)
}

func TestClient_Start(t *testing.T) {
	tr := &fakeTransport{page: minimalPage}
	c, rec := newStartedClient(t, tr)

	assert.True(t, c.Active())
	assert.Equal(t, "XYZ", c.LiveID())
	session, ok := c.Session()
	require.True(t, ok)
	assert.Equal(t, Session{APIKey: "k1", ClientVersion: "2.1", Continuation: "c1"}, session)
	assert.Equal(t, []string{"XYZ"}, rec.started)
	assert.Empty(t, tr.Calls())
}

func TestClient_StartFailures(t *testing.T) {
	tests := []struct {
		name string
		tr   *fakeTransport
		want error
	}{
		{"transport", &fakeTransport{pageErr: errors.New("dial tcp: refused")}, ErrTransportFailure},
		{"not found", &fakeTransport{page: "<html></html>"}, ErrNotFound},
		{"replay", &fakeTransport{page: minimalPage + `"isReplay":true`}, ErrAlreadyEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			c, err := NewClient(rec.config("https://www.youtube.com/watch?v=XYZ", tt.tr))
			require.NoError(t, err)

			err = c.Start(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, c.Active())
			assert.Empty(t, rec.started)
			assert.Equal(t, 1, tt.tr.pageHits, "start must not retry")
		})
	}
}

func TestClient_TickNotStarted(t *testing.T) {
	rec := &recorder{}
	tr := &fakeTransport{}
	c, err := NewClient(rec.config("https://www.youtube.com/watch?v=XYZ", tr))
	require.NoError(t, err)

	n, err := c.Tick(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Zero(t, n)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], ErrNotStarted)
	assert.Empty(t, tr.Calls())
}

func TestClient_TickEmitsAndAdvances(t *testing.T) {
	tr := &fakeTransport{
		page: minimalPage,
		responses: [][]byte{
			mustJSON(t, testutil.LiveChatDoc("c2",
				testutil.TextMessageAction("m1", "Alice", "UC1", "hi"),
				testutil.TextMessageAction("m2", "Bob", "UC2", "yo"),
			)),
			mustJSON(t, testutil.LiveChatDoc("c3")),
		},
	}
	c, rec := newStartedClient(t, tr)

	n, err := c.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, rec.items, 2)
	assert.Equal(t, "m1", rec.items[0].ID)
	assert.Equal(t, "m2", rec.items[1].ID)
	session, _ := c.Session()
	assert.Equal(t, "c2", session.Continuation)

	n, err = c.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	session, _ = c.Session()
	assert.Equal(t, "c3", session.Continuation)

	calls := tr.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "k1", calls[0].apiKey)
	assert.Equal(t, youtubeapi.NewGetLiveChatBody("c1", "2.1"), calls[0].body)
	assert.Equal(t, youtubeapi.NewGetLiveChatBody("c2", "2.1"), calls[1].body)
	assert.Empty(t, rec.errs)
}

func TestClient_TickFailureKeepsContinuation(t *testing.T) {
	tr := &fakeTransport{
		page:      minimalPage,
		errs:      []error{errors.New("timeout"), nil, nil},
		responses: [][]byte{nil, []byte(`{"responseContext":{}}`), mustJSON(t, testutil.LiveChatDoc("c2"))},
	}
	c, rec := newStartedClient(t, tr)

	_, err := c.Tick(context.Background())
	assert.ErrorIs(t, err, ErrTransportFailure)
	_, err = c.Tick(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	require.Len(t, rec.errs, 2)
	session, _ := c.Session()
	assert.Equal(t, "c1", session.Continuation)
	assert.True(t, c.Active())

	_, err = c.Tick(context.Background())
	require.NoError(t, err)

	calls := tr.Calls()
	require.Len(t, calls, 3)
	for _, call := range calls {
		assert.Equal(t, "c1", call.body.Continuation)
	}
	session, _ = c.Session()
	assert.Equal(t, "c2", session.Continuation)
}

func TestClient_StreamEnd(t *testing.T) {
	tr := &fakeTransport{
		page:      minimalPage,
		responses: [][]byte{mustJSON(t, testutil.LiveChatDoc("", testutil.TextMessageAction("last", "Alice", "UC1", "bye")))},
	}
	c, rec := newStartedClient(t, tr)

	n, err := c.Tick(context.Background())
	assert.ErrorIs(t, err, ErrStreamEnded)
	assert.Equal(t, 1, n)
	require.Len(t, rec.items, 1)
	assert.Equal(t, "last", rec.items[0].ID)

	n, err = c.Tick(context.Background())
	assert.ErrorIs(t, err, ErrStreamEnded)
	assert.Zero(t, n)
	assert.Len(t, tr.Calls(), 1, "no request after the stream ended")
	assert.Empty(t, rec.errs)
}

func TestClient_Stop(t *testing.T) {
	tr := &fakeTransport{page: minimalPage}
	c, rec := newStartedClient(t, tr)

	c.Stop()
	assert.False(t, c.Active())
	assert.Empty(t, c.LiveID())
	_, ok := c.Session()
	assert.False(t, ok)
	assert.Equal(t, 1, rec.ended)

	c.Stop()
	assert.Equal(t, 1, rec.ended, "stop on an unstarted client is a no-op")

	_, err := c.Tick(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestClient_StopUnstarted(t *testing.T) {
	rec := &recorder{}
	c, err := NewClient(rec.config("https://www.youtube.com/watch?v=XYZ", &fakeTransport{}))
	require.NoError(t, err)
	c.Stop()
	assert.Zero(t, rec.ended)
}

func TestClient_AgainstMockServer(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	srv.MockWatchPage("/watch", testutil.WatchPageHTML("XYZ", "k1", "2.1", "c1"))
	srv.MockLiveChatResponses(
		testutil.LiveChatDoc("c2", testutil.TextMessageAction("m1", "Alice", "UC1", "hi")),
		testutil.LiveChatDoc(""),
	)

	rec := &recorder{}
	yt := &youtubeapi.Client{BaseURL: srv.URL}
	c, err := NewClient(rec.config(youtubeapi.VideoWatchURL(srv.URL, "XYZ"), yt))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.Equal(t, []string{"XYZ"}, rec.started)

	n, err := c.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, rec.items, 1)
	assert.Equal(t, "hi", rec.items[0].PlainText())

	_, err = c.Tick(ctx)
	assert.ErrorIs(t, err, ErrStreamEnded)

	var bodies []youtubeapi.GetLiveChatBody
	for _, r := range srv.Requests() {
		if r.Path != "/youtubei/v1/live_chat/get_live_chat" {
			continue
		}
		assert.Equal(t, "key=k1", r.Query)
		var b youtubeapi.GetLiveChatBody
		require.NoError(t, json.Unmarshal(r.Body, &b))
		bodies = append(bodies, b)
	}
	require.Len(t, bodies, 2)
	assert.Equal(t, "c1", bodies[0].Continuation)
	assert.Equal(t, "c2", bodies[1].Continuation)
	assert.Equal(t, youtubeapi.ClientNameWeb, bodies[1].Context.Client.ClientName)
}
