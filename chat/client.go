package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/onnwee/livechat/telemetry"
	"github.com/onnwee/livechat/youtubeapi"
)

// Transport performs the network I/O the driver needs. *youtubeapi.Client implements it.
type Transport interface {
	FetchWatchPage(ctx context.Context, watchURL string) (string, error)
	GetLiveChat(ctx context.Context, apiKey string, body youtubeapi.GetLiveChatBody) ([]byte, error)
}

// Config configures a Client. WatchURL and Transport are required; the
// callbacks are optional and run synchronously on the caller's goroutine.
type Config struct {
	WatchURL  string
	Transport Transport

	OnStart func(liveID string)
	OnChat  func(item ChatItem)
	OnError func(err error)
	OnEnd   func()
}

// Client follows one live chat. It has two states: unstarted (no session)
// and active. Start, Tick and Stop must not run concurrently.
type Client struct {
	cfg Config

	session *Session
	liveID  string
	ended   bool
}

// NewClient validates cfg and returns an unstarted client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.WatchURL == "" {
		return nil, errors.New("live chat client: watch url not set")
	}
	if cfg.Transport == nil {
		return nil, errors.New("live chat client: transport not set")
	}
	return &Client{cfg: cfg}, nil
}

// WatchURL returns the configured watch target.
func (c *Client) WatchURL() string { return c.cfg.WatchURL }

// Active reports whether the client holds a session.
func (c *Client) Active() bool { return c.session != nil }

// LiveID returns the live id of the current session, or "".
func (c *Client) LiveID() string { return c.liveID }

// Session returns a copy of the current session parameters.
func (c *Client) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Start fetches the watch page and extracts the session. On failure the
// client stays unstarted and the error is returned; there is no retry.
func (c *Client) Start(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "livechat.start", attribute.String("watch_url", c.cfg.WatchURL))
	defer span.End()

	page, err := c.cfg.Transport.FetchWatchPage(ctx, c.cfg.WatchURL)
	if err != nil {
		err = newError(KindTransportFailure, "fetch watch page", err)
		telemetry.RecordError(span, err)
		return err
	}
	session, liveID, err := ExtractSession(page)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	c.session = &session
	c.liveID = liveID
	c.ended = false
	telemetry.SetSessionActive(true)
	telemetry.SetSpanSuccess(span)
	span.SetAttributes(attribute.String("live_id", liveID))
	slog.Info("live chat session started", slog.String("live_id", liveID), slog.String("client_version", session.ClientVersion), slog.String("component", "chat"))
	if c.cfg.OnStart != nil {
		c.cfg.OnStart(liveID)
	}
	return nil
}

// Tick performs one poll: one request, one response, items emitted in order
// through OnChat, then the stored continuation is replaced. It returns the
// number of items emitted. Failures go to OnError and are returned; the
// previous continuation is kept. Once upstream returns no continuation, Tick
// returns ErrStreamEnded without further requests.
func (c *Client) Tick(ctx context.Context) (int, error) {
	if c.session == nil {
		c.reportError(ErrNotStarted)
		return 0, ErrNotStarted
	}
	if c.ended {
		return 0, ErrStreamEnded
	}
	telemetry.IncTick()

	ctx, span := telemetry.StartSpan(ctx, "livechat.tick", attribute.String("live_id", c.liveID))
	defer span.End()
	start := time.Now()
	defer func() {
		if telemetry.TickDuration != nil {
			telemetry.TickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	s := *c.session
	raw, err := c.cfg.Transport.GetLiveChat(ctx, s.APIKey, youtubeapi.NewGetLiveChatBody(s.Continuation, s.ClientVersion))
	if err != nil {
		return 0, c.tickFailed(span, newError(KindTransportFailure, "get live chat", err))
	}
	resp, err := DecodeResponse(raw)
	if err != nil {
		return 0, c.tickFailed(span, err)
	}
	b := mapBatch(resp)
	telemetry.AddSkipped(b.skipped)
	counts := make(map[RendererKind]int, 4)
	for i, item := range b.items {
		counts[b.kinds[i]]++
		if c.cfg.OnChat != nil {
			c.cfg.OnChat(item)
		}
	}
	for kind, n := range counts {
		telemetry.AddItems(kind.String(), n)
	}
	span.SetAttributes(attribute.Int("items", len(b.items)), attribute.Int("skipped", b.skipped))

	if b.continuation == "" {
		c.ended = true
		telemetry.IncStreamEnded()
		telemetry.SetSpanSuccess(span)
		telemetry.LoggerWithCorr(ctx).Info("live chat stream ended", slog.String("live_id", c.liveID), slog.String("component", "chat"))
		return len(b.items), ErrStreamEnded
	}
	c.session.Continuation = b.continuation
	telemetry.SetSpanSuccess(span)
	telemetry.LoggerWithCorr(ctx).Debug("tick complete", slog.Int("items", len(b.items)), slog.Int("skipped", b.skipped), slog.String("component", "chat"))
	return len(b.items), nil
}

// Stop discards the session and fires OnEnd. Stopping an unstarted client does nothing.
func (c *Client) Stop() {
	if c.session == nil {
		return
	}
	c.session = nil
	c.ended = false
	telemetry.SetSessionActive(false)
	slog.Info("live chat session stopped", slog.String("live_id", c.liveID), slog.String("component", "chat"))
	c.liveID = ""
	if c.cfg.OnEnd != nil {
		c.cfg.OnEnd()
	}
}

func (c *Client) tickFailed(span trace.Span, err error) error {
	telemetry.IncTickFailure(KindOf(err).String())
	telemetry.RecordError(span, err)
	slog.Warn("live chat tick failed", slog.Any("err", err), slog.String("live_id", c.liveID), slog.String("component", "chat"))
	c.reportError(err)
	return err
}

func (c *Client) reportError(err error) {
	if c.cfg.OnError != nil {
		c.cfg.OnError(err)
	}
}
